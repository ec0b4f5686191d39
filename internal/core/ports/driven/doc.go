// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Fetches documents from a data source
//   - ConnectorFactory: Creates connectors from configuration
//   - Normaliser: Transforms raw documents into indexed form
//   - NormaliserRegistry: Selects appropriate normaliser
//   - PostProcessorPipeline: Enriches documents before storage
//   - DocumentStore: Document persistence (the system of record)
//   - SourceStore: Source configuration persistence
//   - SyncStateStore: Sync progress persistence
//   - SyncLogStore: Sync run history
//   - SchedulerStore: Scheduled task state and history
//   - ConfigStore: Application configuration
//   - SearchIndex: Full-text search (Bleve). Derived from DocumentStore
//     and rebuildable from it at any time.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
