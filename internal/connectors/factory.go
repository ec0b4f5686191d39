package connectors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/corpora-labs/docseek/internal/connectors/confluence"
	"github.com/corpora-labs/docseek/internal/connectors/filesystem"
	"github.com/corpora-labs/docseek/internal/connectors/git"
	"github.com/corpora-labs/docseek/internal/connectors/github"
	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory creates connectors from source configuration. Credentials are
// resolved from the config store by connector type: "<type>.token" and
// "<type>.username".
type Factory struct {
	config driven.ConfigStore

	mu       sync.RWMutex
	builders map[string]driven.ConnectorBuilder
}

// NewFactory creates a factory with all built-in connector types
// registered. The config store may be nil, in which case every
// connector builds with empty credentials.
func NewFactory(config driven.ConfigStore) *Factory {
	f := &Factory{
		config:   config,
		builders: make(map[string]driven.ConnectorBuilder),
	}

	f.Register(domain.SourceTypeLocal, f.buildLocal)
	f.Register(domain.SourceTypeGit, f.buildGit)
	f.Register(domain.SourceTypeGitHub, f.buildGitHub)
	f.Register(domain.SourceTypeConfluence, f.buildConfluence)

	return f
}

// Create returns a connector for the given source.
func (f *Factory) Create(ctx context.Context, source domain.Source) (driven.Connector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	builder, ok := f.builders[source.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, source.Type)
	}

	conn, err := builder(source, f.credentials(source.Type))
	if err != nil {
		return nil, fmt.Errorf("build %s connector: %w", source.Type, err)
	}
	return conn, nil
}

// Register adds a connector builder for the given type, replacing any
// existing builder.
func (f *Factory) Register(connectorType string, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[connectorType] = builder
}

// SupportedTypes returns all registered connector types, sorted.
func (f *Factory) SupportedTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// credentials resolves the static credentials configured for a
// connector type.
func (f *Factory) credentials(connectorType string) driven.Credentials {
	return driven.Credentials{
		Token:    f.configString(connectorType + ".token"),
		Username: f.configString(connectorType + ".username"),
	}
}

func (f *Factory) configString(key string) string {
	if f.config == nil {
		return ""
	}
	return f.config.GetString(key)
}

func (f *Factory) buildLocal(source domain.Source, _ driven.Credentials) (driven.Connector, error) {
	rootPath := strings.TrimSpace(source.ConfigValue("path"))
	if rootPath == "" {
		return nil, fmt.Errorf("%w: local source needs a path", domain.ErrInvalidInput)
	}
	return filesystem.New(source.ID, rootPath), nil
}

func (f *Factory) buildGit(source domain.Source, creds driven.Credentials) (driven.Connector, error) {
	cfg, err := git.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return git.New(source.ID, cfg, creds), nil
}

func (f *Factory) buildGitHub(source domain.Source, creds driven.Credentials) (driven.Connector, error) {
	if creds.Token == "" {
		return nil, domain.ErrAuthRequired
	}

	cfg, err := github.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return github.New(source.ID, cfg, creds), nil
}

func (f *Factory) buildConfluence(source domain.Source, creds driven.Credentials) (driven.Connector, error) {
	if creds.Username == "" || creds.Token == "" {
		return nil, domain.ErrAuthRequired
	}

	// A source without its own url falls back to the global site URL
	if source.ConfigValue("url") == "" {
		if siteURL := f.configString("confluence.url"); siteURL != "" {
			merged := make(map[string]string, len(source.Config)+1)
			for k, v := range source.Config {
				merged[k] = v
			}
			merged["url"] = siteURL
			source.Config = merged
		}
	}

	cfg, err := confluence.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return confluence.New(source.ID, cfg, creds), nil
}

// ResolveWebURL maps a document URI to a browser URL using the resolver
// of the connector type that produced it. Returns the empty string when
// no web link can be derived.
func ResolveWebURL(sourceType, uri string, metadata map[string]any) string {
	switch sourceType {
	case domain.SourceTypeLocal:
		return filesystem.ResolveWebURL(uri, metadata)
	case domain.SourceTypeGit:
		return git.ResolveWebURL(uri, metadata)
	case domain.SourceTypeGitHub:
		return github.ResolveWebURL(uri, metadata)
	case domain.SourceTypeConfluence:
		return confluence.ResolveWebURL(uri, metadata)
	default:
		return ""
	}
}
