// Package services implements the driving port interfaces: search,
// document and source management, sync orchestration, index maintenance,
// settings, and the background scheduler. Services contain the core
// business logic and orchestrate calls to driven ports (adapters).
package services
