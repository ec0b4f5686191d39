package cli

import (
	"context"
	"errors"
	"time"

	"github.com/corpora-labs/docseek/internal/adapters/driven/storage/memory"
	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
)

// errMock is what failing mocks return.
var errMock = errors.New("mock failure")

var fixedTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

// setupTestServices swaps every service for a happy-path mock and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldConfig := configStore
	oldSearch := searchService
	oldIndex := indexService
	oldDocument := documentService
	oldSource := sourceService
	oldSync := syncOrchestrator
	oldSettings := settingsService

	configStore = memory.NewConfigStore()
	searchService = &mockSearchService{}
	indexService = &mockIndexService{}
	documentService = &mockDocumentService{}
	sourceService = &mockSourceService{}
	syncOrchestrator = &mockSyncOrchestrator{}
	settingsService = &mockSettingsService{}

	return func() {
		configStore = oldConfig
		searchService = oldSearch
		indexService = oldIndex
		documentService = oldDocument
		sourceService = oldSource
		syncOrchestrator = oldSync
		settingsService = oldSettings
	}
}

// Search mocks.

var (
	_ driving.SearchService = (*mockSearchService)(nil)
	_ driving.SearchService = (*mockSearchServiceError)(nil)
)

type mockSearchService struct{}

func (m *mockSearchService) Search(_ context.Context, _ string, _ domain.SearchOptions) (*driving.SearchPage, error) {
	return &driving.SearchPage{
		Hits: []domain.SearchHit{
			{
				ID:         "doc-1",
				Title:      "部署指南",
				Category:   "ops",
				SourceType: "git",
				Score:      2.41,
				Excerpt:    "生产环境**部署**步骤如下",
				UpdatedAt:  fixedTime,
			},
			{
				ID:         "doc-2",
				Title:      "API Reference",
				SourceType: "local",
				Score:      1.12,
				Excerpt:    "an overview of the **api** surface",
				UpdatedAt:  fixedTime,
			},
		},
		Total:   2,
		Elapsed: 3 * time.Millisecond,
	}, nil
}

func (m *mockSearchService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{
		TotalDocuments: 3,
		Categories:     map[string]int{"dev": 2, "ops": 1},
		SourceTypes:    map[string]int{"git": 1, "local": 2},
	}, nil
}

type mockSearchServiceError struct{}

func (m *mockSearchServiceError) Search(_ context.Context, _ string, _ domain.SearchOptions) (*driving.SearchPage, error) {
	return nil, errMock
}

func (m *mockSearchServiceError) Stats(_ context.Context) (*domain.IndexStats, error) {
	return nil, errMock
}

// Index mocks.

var (
	_ driving.IndexService = (*mockIndexService)(nil)
	_ driving.IndexService = (*mockIndexServiceError)(nil)
)

type mockIndexService struct{}

func (m *mockIndexService) Rebuild(_ context.Context) (int, error) {
	return 42, nil
}

type mockIndexServiceError struct{}

func (m *mockIndexServiceError) Rebuild(_ context.Context) (int, error) {
	return 0, errMock
}

// Document mocks.

var (
	_ driving.DocumentService = (*mockDocumentService)(nil)
	_ driving.DocumentService = (*mockDocumentServiceEmpty)(nil)
	_ driving.DocumentService = (*mockDocumentServiceError)(nil)
	_ driving.DocumentService = (*mockDocumentServiceNoMetadata)(nil)
	_ driving.DocumentService = (*mockDocumentServiceNoURI)(nil)
)

type mockDocumentService struct{}

func (m *mockDocumentService) ListBySource(_ context.Context, sourceID string) ([]domain.Document, error) {
	return []domain.Document{
		{
			ID:        "doc-1",
			SourceID:  sourceID,
			URI:       "docs/guide.md",
			Title:     "Test Document 1",
			Published: true,
		},
		{
			ID:        "doc-2",
			SourceID:  sourceID,
			URI:       "docs/api.md",
			Title:     "Test Document 2",
			Published: false,
		},
	}, nil
}

func (m *mockDocumentService) Get(_ context.Context, documentID string) (*domain.Document, error) {
	return &domain.Document{
		ID:        documentID,
		SourceID:  "src-1",
		URI:       "docs/guide.md",
		Title:     "Test Document 1",
		Content:   "This is the content of the test document.",
		Summary:   "A short summary.",
		Category:  "dev",
		Language:  "en",
		Tags:      []string{"guide", "setup"},
		Published: true,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}, nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, documentID string) (*driving.DocumentDetails, error) {
	return &driving.DocumentDetails{
		ID:         documentID,
		SourceID:   "src-1",
		SourceName: "Team Docs",
		SourceType: "local",
		Title:      "Test Document 1",
		URI:        "docs/guide.md",
		Category:   "dev",
		Author:     "alice",
		Published:  true,
		CreatedAt:  fixedTime,
		UpdatedAt:  fixedTime,
		Metadata:   map[string]string{"file_path": "docs/guide.md"},
	}, nil
}

func (m *mockDocumentService) Publish(_ context.Context, _ string) error   { return nil }
func (m *mockDocumentService) Unpublish(_ context.Context, _ string) error { return nil }
func (m *mockDocumentService) Delete(_ context.Context, _ string) error    { return nil }

func (m *mockDocumentService) Categories(_ context.Context) (map[string]int, error) {
	return map[string]int{"dev": 2, "ops": 1}, nil
}

type mockDocumentServiceEmpty struct{}

func (m *mockDocumentServiceEmpty) ListBySource(_ context.Context, _ string) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockDocumentServiceEmpty) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentServiceEmpty) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentServiceEmpty) Publish(_ context.Context, _ string) error   { return domain.ErrNotFound }
func (m *mockDocumentServiceEmpty) Unpublish(_ context.Context, _ string) error { return domain.ErrNotFound }
func (m *mockDocumentServiceEmpty) Delete(_ context.Context, _ string) error    { return domain.ErrNotFound }

func (m *mockDocumentServiceEmpty) Categories(_ context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

type mockDocumentServiceError struct{}

func (m *mockDocumentServiceError) ListBySource(_ context.Context, _ string) ([]domain.Document, error) {
	return nil, errMock
}

func (m *mockDocumentServiceError) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, errMock
}

func (m *mockDocumentServiceError) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return nil, errMock
}

func (m *mockDocumentServiceError) Publish(_ context.Context, _ string) error   { return errMock }
func (m *mockDocumentServiceError) Unpublish(_ context.Context, _ string) error { return errMock }
func (m *mockDocumentServiceError) Delete(_ context.Context, _ string) error    { return errMock }

func (m *mockDocumentServiceError) Categories(_ context.Context) (map[string]int, error) {
	return nil, errMock
}

// mockDocumentServiceNoMetadata serves documents with no tags, summary
// or metadata so display code skips those sections.
type mockDocumentServiceNoMetadata struct {
	mockDocumentService
}

func (m *mockDocumentServiceNoMetadata) Get(_ context.Context, documentID string) (*domain.Document, error) {
	return &domain.Document{
		ID:        documentID,
		SourceID:  "src-1",
		URI:       "docs/guide.md",
		Title:     "Test Document 1",
		Content:   "This is the content of the test document.",
		Language:  "en",
		Published: true,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}, nil
}

func (m *mockDocumentServiceNoMetadata) GetDetails(_ context.Context, documentID string) (*driving.DocumentDetails, error) {
	return &driving.DocumentDetails{
		ID:         documentID,
		SourceID:   "src-1",
		SourceName: "Team Docs",
		SourceType: "local",
		Title:      "Test Document 1",
		URI:        "docs/guide.md",
		Published:  true,
		CreatedAt:  fixedTime,
		UpdatedAt:  fixedTime,
	}, nil
}

type mockDocumentServiceNoURI struct {
	mockDocumentService
}

func (m *mockDocumentServiceNoURI) ListBySource(_ context.Context, sourceID string) ([]domain.Document, error) {
	return []domain.Document{
		{ID: "doc-1", SourceID: sourceID, Title: "Test Document 1", Published: true},
	}, nil
}

// Source mocks.

var (
	_ driving.SourceService = (*mockSourceService)(nil)
	_ driving.SourceService = (*mockSourceServiceEmpty)(nil)
	_ driving.SourceService = (*mockSourceServiceError)(nil)
)

type mockSourceService struct{}

func (m *mockSourceService) Add(_ context.Context, _ domain.Source) error { return nil }

func (m *mockSourceService) Get(_ context.Context, id string) (*domain.Source, error) {
	return &domain.Source{
		ID:     id,
		Type:   domain.SourceTypeLocal,
		Name:   "Team Docs",
		Config: map[string]string{"path": "/srv/docs"},
	}, nil
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return []domain.Source{
		{
			ID:       "src-1",
			Type:     domain.SourceTypeLocal,
			Name:     "Team Docs",
			Category: "dev",
			Config:   map[string]string{"path": "/srv/docs"},
		},
		{
			ID:     "src-2",
			Type:   domain.SourceTypeGit,
			Name:   "Platform Handbook",
			Config: map[string]string{"url": "https://example.com/platform.git"},
		},
	}, nil
}

func (m *mockSourceService) Update(_ context.Context, _ domain.Source) error { return nil }
func (m *mockSourceService) Remove(_ context.Context, _ string) error        { return nil }

func (m *mockSourceService) ValidateConfig(_ context.Context, _ string, _ map[string]string) error {
	return nil
}

func (m *mockSourceService) Types() []domain.ConnectorType {
	return []domain.ConnectorType{
		{
			ID:          domain.SourceTypeLocal,
			Name:        "Local Directory",
			Description: "Index markdown and text files from a local directory",
			ConfigKeys: []domain.ConfigKey{
				{
					Key:         "path",
					Label:       "Directory Path",
					Description: "Absolute path of the directory to index",
					Required:    true,
				},
			},
		},
		{
			ID:           domain.SourceTypeGitHub,
			Name:         "GitHub",
			Description:  "Index documentation files from GitHub repositories",
			RequiresAuth: true,
			ConfigKeys: []domain.ConfigKey{
				{
					Key:         "repos",
					Label:       "Repositories",
					Description: "Comma-separated owner/name list",
				},
			},
		},
	}
}

type mockSourceServiceEmpty struct{}

func (m *mockSourceServiceEmpty) Add(_ context.Context, _ domain.Source) error { return nil }

func (m *mockSourceServiceEmpty) Get(_ context.Context, _ string) (*domain.Source, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSourceServiceEmpty) List(_ context.Context) ([]domain.Source, error) {
	return nil, nil
}

func (m *mockSourceServiceEmpty) Update(_ context.Context, _ domain.Source) error { return nil }
func (m *mockSourceServiceEmpty) Remove(_ context.Context, _ string) error        { return domain.ErrNotFound }

func (m *mockSourceServiceEmpty) ValidateConfig(_ context.Context, _ string, _ map[string]string) error {
	return nil
}

func (m *mockSourceServiceEmpty) Types() []domain.ConnectorType { return nil }

// mockSourceServiceError fails every store operation but still reports
// connector types, so add flows reach the failing call.
type mockSourceServiceError struct {
	mockSourceService
}

func (m *mockSourceServiceError) Add(_ context.Context, _ domain.Source) error { return errMock }

func (m *mockSourceServiceError) List(_ context.Context) ([]domain.Source, error) {
	return nil, errMock
}

func (m *mockSourceServiceError) Remove(_ context.Context, _ string) error { return errMock }

// Settings mocks.

var (
	_ driving.SettingsService = (*mockSettingsService)(nil)
	_ driving.SettingsService = (*mockSettingsServiceError)(nil)
	_ driving.SettingsService = (*mockSettingsServiceInvalid)(nil)
)

type mockSettingsService struct{}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	return &settings, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) Validate() error { return nil }

type mockSettingsServiceError struct{}

func (m *mockSettingsServiceError) Get() (*domain.AppSettings, error) { return nil, errMock }
func (m *mockSettingsServiceError) Save(_ *domain.AppSettings) error  { return errMock }

func (m *mockSettingsServiceError) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsServiceError) Validate() error { return errMock }

// mockSettingsServiceInvalid loads fine but fails validation, like a
// config file with a bad cron expression.
type mockSettingsServiceInvalid struct {
	mockSettingsService
}

func (m *mockSettingsServiceInvalid) Validate() error {
	return errors.New("sync.schedule: bad expression")
}
