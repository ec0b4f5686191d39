package driven

import (
	"context"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// Credentials carries the static secrets a connector needs. Values are
// resolved from the config store per connector type ("github.token",
// "confluence.username", ...). Connectors that need none receive the
// zero value.
type Credentials struct {
	// Token is the personal access or API token.
	Token string

	// Username pairs with Token for basic-auth APIs (Confluence).
	Username string
}

// ConnectorBuilder creates a Connector from a Source.
type ConnectorBuilder func(source domain.Source, creds Credentials) (Connector, error)

// ConnectorFactory creates connectors from source configuration.
// It maintains a registry of connector types and their builders and
// resolves credentials from the config store before building.
type ConnectorFactory interface {
	// Create returns a Connector for the given source.
	// Returns ErrUnsupportedType if the source type is unknown and
	// ErrAuthRequired when the type needs credentials that are not
	// configured.
	Create(ctx context.Context, source domain.Source) (Connector, error)

	// Register adds a connector builder for the given type.
	Register(connectorType string, builder ConnectorBuilder)

	// SupportedTypes returns all registered connector types.
	SupportedTypes() []string
}
