// Package connectors provides implementations of the Connector interface
// for the supported source types: local directories, git repositories,
// GitHub, and Confluence.
//
// The Factory builds connectors from source configuration and resolves
// each type's credentials from the config store.
package connectors
