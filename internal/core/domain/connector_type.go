package domain

// ConnectorType describes a supported connector.
type ConnectorType struct {
	// ID is the unique identifier (e.g., "local", "git", "github",
	// "confluence").
	ID string

	// Name is the human-readable display name.
	Name string

	// Description provides a brief explanation of the connector.
	Description string

	// RequiresAuth indicates the connector needs credentials from the
	// config store before it can sync.
	RequiresAuth bool

	// ConfigKeys lists the configuration fields required by this connector.
	ConfigKeys []ConfigKey
}

// ConfigKey describes a configuration field for a connector.
type ConfigKey struct {
	// Key is the configuration key name.
	Key string

	// Label is the human-readable label for display.
	Label string

	// Description explains what this field is for.
	Description string

	// Default is the default value for this field.
	Default string

	// Required indicates whether this field must be provided.
	Required bool

	// Secret indicates whether this field should be masked (tokens).
	Secret bool
}
