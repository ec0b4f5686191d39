package bleveidx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/docseek/internal/adapters/driven/index/segment"
	"github.com/corpora-labs/docseek/internal/core/domain"
)

func testSegmentConfig() segment.Config {
	return segment.Config{
		Language: segment.LanguageChinese,
		DictPath: "testdata/dict.txt",
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := Open(Config{
		Path:    filepath.Join(t.TempDir(), "index"),
		Segment: testSegmentConfig(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func testDoc(id, title, content, category, sourceType string) *domain.Document {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &domain.Document{
		ID:         id,
		Title:      title,
		Content:    content,
		Category:   category,
		SourceType: sourceType,
		Author:     "张伟",
		FilePath:   "docs/" + id + ".md",
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

// seedDocs indexes a small bilingual corpus used by the search scenarios.
func seedDocs(t *testing.T, eng *Engine) {
	t.Helper()
	ctx := context.Background()

	api := testDoc("doc-1", "API文档", "这份文档介绍RESTful API设计与接口规范。", "development", "git")
	api.FilePath = "docs/api.md"
	require.NoError(t, eng.Update(ctx, api))

	deploy := testDoc("doc-2", "部署指南", "使用Docker和Kubernetes部署服务的完整说明。", "deployment", "local")
	deploy.Author = "李娜"
	require.NoError(t, eng.Update(ctx, deploy))

	standards := testDoc("doc-3", "开发规范", "团队代码审查与版本控制规范。", "development", "confluence")
	standards.Author = "王强"
	require.NoError(t, eng.Update(ctx, standards))
}

func TestOpen_CreatesMissingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	eng, err := Open(Config{Path: path, Segment: testSegmentConfig()})
	require.NoError(t, err)
	defer eng.Close()

	stats, err := eng.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalDocuments)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_CorruptIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "index_meta.json"), []byte("not json"), 0o644))

	_, err := Open(Config{Path: path, Segment: testSegmentConfig()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestOpen_ReopenExistingIndex(t *testing.T) {
	cfg := Config{
		Path:    filepath.Join(t.TempDir(), "index"),
		Segment: testSegmentConfig(),
	}
	ctx := context.Background()

	eng, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, eng.Update(ctx, testDoc("doc-2", "部署指南", "使用Docker部署服务。", "deployment", "local")))
	require.NoError(t, eng.Close())

	// Reopening restores the tokenizer from the persisted mapping, so
	// Chinese queries keep working against the old postings.
	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	hits, total, err := reopened.Search(ctx, "部署", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2", hits[0].ID)
}

func TestEngine_Update_InsertsAndReplaces(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Update(ctx, testDoc("doc-1", "数据同步", "", "ops", "git")))

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)

	// Same ID again with a new title supersedes the old postings.
	require.NoError(t, eng.Update(ctx, testDoc("doc-1", "数据库配置", "", "ops", "git")))

	stats, err = eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)

	_, total, err := eng.Search(ctx, "同步", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	hits, total, err := eng.Search(ctx, "配置", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].ID)
}

func TestEngine_Update_InvalidInput(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	assert.ErrorIs(t, eng.Update(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, eng.Update(ctx, testDoc("", "无标识", "", "", "")), domain.ErrInvalidInput)
}

func TestEngine_Update_CancelledContext(t *testing.T) {
	eng := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := eng.Update(ctx, testDoc("doc-1", "测试", "", "test", "local"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// The batch never committed.
	stats, err := eng.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalDocuments)
}

func TestEngine_Delete_RemovesDocument(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Update(ctx, testDoc("doc-1", "数据库配置", "", "ops", "git")))
	require.NoError(t, eng.Delete(ctx, "doc-1"))

	_, total, err := eng.Search(ctx, "配置", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// Deleting an absent ID is a no-op, an empty ID is not.
	assert.NoError(t, eng.Delete(ctx, "doc-1"))
	assert.ErrorIs(t, eng.Delete(ctx, ""), domain.ErrInvalidInput)
}

func TestEngine_Rebuild_ReplacesAllDocuments(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Update(ctx, testDoc("old-1", "数据同步", "", "ops", "git")))
	require.NoError(t, eng.Update(ctx, testDoc("old-2", "部署指南", "", "deployment", "local")))

	err := eng.Rebuild(ctx, []*domain.Document{
		testDoc("new-1", "索引重建", "", "ops", "git"),
	})
	require.NoError(t, err)

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)

	hits, total, err := eng.Search(ctx, "重建", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "new-1", hits[0].ID)

	_, total, err = eng.Search(ctx, "同步", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestEngine_Search_ChineseQuery(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)

	hits, total, err := eng.Search(context.Background(), "指南", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2", hits[0].ID)
	assert.NotEmpty(t, hits[0].Excerpt)
}

func TestEngine_Search_LatinQuery(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)

	hits, total, err := eng.Search(context.Background(), "API", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].ID)
}

func TestEngine_Search_CategoryFilter(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)
	ctx := context.Background()

	hits, total, err := eng.Search(ctx, "指南", domain.SearchOptions{Category: "deployment", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2", hits[0].ID)

	// The filter is exact, not a ranking signal.
	_, total, err = eng.Search(ctx, "指南", domain.SearchOptions{Category: "development", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestEngine_Search_SourceTypeFilter(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)

	// 规范 appears in doc-1 (git) and doc-3 (confluence).
	hits, total, err := eng.Search(context.Background(), "规范", domain.SearchOptions{SourceType: "git", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].ID)
}

func TestEngine_Search_TitleBoost(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	inTitle := testDoc("boost-title", "索引优化", "一份关于查询性能的说明。", "test", "git")
	inContent := testDoc("boost-content", "配置说明", "索引优化的方法。", "test", "git")
	require.NoError(t, eng.Update(ctx, inTitle))
	require.NoError(t, eng.Update(ctx, inContent))

	hits, total, err := eng.Search(ctx, "索引", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, hits, 2)
	assert.Equal(t, "boost-title", hits[0].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestEngine_Search_Pagination(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// Content lengths differ so scores are strictly ordered.
	docs := []*domain.Document{
		testDoc("page-1", "单元测试", "测试说明。", "test", "git"),
		testDoc("page-2", "集成测试", "测试说明文件。", "test", "git"),
		testDoc("page-3", "系统测试", "覆盖项目的测试说明文件。", "test", "git"),
		testDoc("page-4", "性能测试", "覆盖团队项目的完整测试说明文件。", "test", "git"),
	}
	for _, doc := range docs {
		require.NoError(t, eng.Update(ctx, doc))
	}

	first, total, err := eng.Search(ctx, "测试", domain.SearchOptions{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, first, 2)

	second, total, err := eng.Search(ctx, "测试", domain.SearchOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, second, 2)

	seen := map[string]bool{}
	for _, hit := range append(first, second...) {
		seen[hit.ID] = true
	}
	assert.Len(t, seen, 4)
}

func TestEngine_Search_FuzzyMatchesTypo(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)

	// One edit away from "docker" in doc-2's content.
	hits, total, err := eng.Search(context.Background(), "Doker", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2", hits[0].ID)
}

func TestEngine_Search_EmptyQuery(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)
	ctx := context.Background()

	for _, query := range []string{"", "   "} {
		hits, total, err := eng.Search(ctx, query, domain.SearchOptions{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, hits)
		assert.Equal(t, 0, total)
	}
}

func TestEngine_Search_HitProjection(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)

	hits, _, err := eng.Search(context.Background(), "API", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, "doc-1", hit.ID)
	assert.Equal(t, "API文档", hit.Title)
	assert.Equal(t, "development", hit.Category)
	assert.Equal(t, "git", hit.SourceType)
	assert.Equal(t, "张伟", hit.Author)
	assert.Equal(t, "docs/api.md", hit.FilePath)
	assert.True(t, hit.UpdatedAt.Equal(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)))
	assert.Greater(t, hit.Score, 0.0)
	assert.Contains(t, hit.Excerpt, "**API**")
}

func TestEngine_Stats_CountsByCategoryAndSourceType(t *testing.T) {
	eng := newTestEngine(t)
	seedDocs(t, eng)
	ctx := context.Background()

	// A document without classification lands in the unknown bucket.
	require.NoError(t, eng.Update(ctx, testDoc("doc-4", "未分类", "", "", "")))

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDocuments)
	assert.Equal(t, map[string]int{"development": 2, "deployment": 1, "unknown": 1}, stats.Categories)
	assert.Equal(t, map[string]int{"git": 1, "local": 1, "confluence": 1, "unknown": 1}, stats.SourceTypes)
}

func TestEngine_Close_SubsequentCallsFail(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Close())

	_, _, err := eng.Search(ctx, "测试", domain.SearchOptions{Limit: 10})
	assert.ErrorIs(t, err, domain.ErrIndexClosed)

	err = eng.Update(ctx, testDoc("doc-1", "测试", "", "test", "local"))
	assert.ErrorIs(t, err, domain.ErrIndexClosed)

	_, err = eng.Stats(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexClosed)

	assert.NoError(t, eng.Close())
}

func TestEngine_ConcurrentReadsAndWrites(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				doc := testDoc(fmt.Sprintf("doc-%d-%d", w, i), fmt.Sprintf("并发测试%d", i), "写入与查询并发运行。", "test", "local")
				assert.NoError(t, eng.Update(ctx, doc))
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, _, err := eng.Search(ctx, "测试", domain.SearchOptions{Limit: 10})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalDocuments)
}
