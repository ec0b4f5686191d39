package confluence

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

const (
	testUsername = "dev@acme.io"
	testToken    = "api-token"
)

func testCreds() driven.Credentials {
	return driven.Credentials{Username: testUsername, Token: testToken}
}

// fakePage is a page served by the fake site.
type fakePage struct {
	id        string
	title     string
	version   int
	author    string
	body      string
	ancestors []fakeAncestor
}

type fakeAncestor struct {
	id    string
	title string
}

// fakeSite is an in-memory Confluence site backing an httptest server.
type fakeSite struct {
	server *httptest.Server

	mu          sync.Mutex
	spaces      map[string][]fakePage
	clamp       int
	rateLimited bool
	listCalls   int
	getCalls    int
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()

	site := &fakeSite{spaces: make(map[string][]fakePage)}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/user/current", site.handleCurrentUser)
	mux.HandleFunc("/rest/api/content", site.handleList)
	mux.HandleFunc("/rest/api/content/", site.handleGet)

	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func (s *fakeSite) setPages(spaceKey string, pages ...fakePage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[spaceKey] = pages
}

func (s *fakeSite) setClamp(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clamp = limit
}

func (s *fakeSite) setRateLimited(limited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimited = limited
}

func (s *fakeSite) counters() (listCalls, getCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, s.getCalls
}

func (s *fakeSite) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	return ok && user == testUsername && pass == testToken
}

func (s *fakeSite) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Basic auth failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"displayName": "Dev"})
}

func (s *fakeSite) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Basic auth failed"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++

	if s.rateLimited {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"message": "Rate limit exceeded"})
		return
	}

	query := r.URL.Query()
	key := query.Get("spaceKey")
	pages, ok := s.spaces[key]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "No space found with key: " + key})
		return
	}

	start, _ := strconv.Atoi(query.Get("start"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	if s.clamp > 0 && limit > s.clamp {
		limit = s.clamp
	}

	end := start + limit
	if start > len(pages) {
		start = len(pages)
	}
	if end > len(pages) {
		end = len(pages)
	}

	expand := query.Get("expand")
	results := make([]map[string]any, 0, end-start)
	for _, page := range pages[start:end] {
		results = append(results, pageJSON(page, expand))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"start":   start,
		"limit":   limit,
		"size":    len(results),
	})
}

func (s *fakeSite) handleGet(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Basic auth failed"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++

	id := strings.TrimPrefix(r.URL.Path, "/rest/api/content/")
	for _, pages := range s.spaces {
		for _, page := range pages {
			if page.id == id {
				writeJSON(w, http.StatusOK, pageJSON(page, expandFull))
				return
			}
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]any{"message": "No content found with id: " + id})
}

func pageJSON(p fakePage, expand string) map[string]any {
	page := map[string]any{
		"id":     p.id,
		"type":   "page",
		"status": "current",
		"title":  p.title,
		"version": map[string]any{
			"number": p.version,
			"when":   "2024-03-01T08:30:00.000Z",
			"by":     map[string]any{"displayName": p.author},
		},
		"_links": map[string]any{"webui": "/pages/viewpage.action?pageId=" + p.id},
	}

	if strings.Contains(expand, "body.storage") {
		page["body"] = map[string]any{
			"storage": map[string]any{"value": p.body, "representation": "storage"},
		}
	}

	if strings.Contains(expand, "ancestors") {
		ancestors := make([]map[string]any, 0, len(p.ancestors))
		for _, a := range p.ancestors {
			ancestors = append(ancestors, map[string]any{"id": a.id, "title": a.title})
		}
		page["ancestors"] = ancestors
	}

	return page
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestConnector(site *fakeSite, spaces ...string) *Connector {
	cfg := &Config{BaseURL: site.server.URL, Spaces: spaces}
	return New("src-1", cfg, testCreds())
}

// collectFull drains a full sync into slices.
func collectFull(t *testing.T, conn *Connector) ([]domain.RawDocument, []error) {
	t.Helper()

	docsChan, errsChan := conn.FullSync(context.Background())

	var docs []domain.RawDocument
	var errs []error
	for docsChan != nil || errsChan != nil {
		select {
		case doc, ok := <-docsChan:
			if !ok {
				docsChan = nil
				continue
			}
			docs = append(docs, doc)
		case err, ok := <-errsChan:
			if !ok {
				errsChan = nil
				continue
			}
			errs = append(errs, err)
		}
	}
	return docs, errs
}

// collectIncremental drains an incremental sync into slices.
func collectIncremental(t *testing.T, conn *Connector, cursor string) ([]domain.RawDocumentChange, []error) {
	t.Helper()

	changesChan, errsChan := conn.IncrementalSync(context.Background(), domain.SyncState{
		SourceID: conn.SourceID(),
		Cursor:   cursor,
	})

	var changes []domain.RawDocumentChange
	var errs []error
	for changesChan != nil || errsChan != nil {
		select {
		case change, ok := <-changesChan:
			if !ok {
				changesChan = nil
				continue
			}
			changes = append(changes, change)
		case err, ok := <-errsChan:
			if !ok {
				errsChan = nil
				continue
			}
			errs = append(errs, err)
		}
	}
	return changes, errs
}

// syncCursor pulls the completion sentinel out of an error slice,
// returning the decoded cursor and the remaining errors.
func syncCursor(t *testing.T, errs []error) (*Cursor, []error) {
	t.Helper()

	var cursor *Cursor
	var rest []error
	for _, err := range errs {
		if sc, ok := driven.IsSyncComplete(err); ok {
			decoded, decodeErr := DecodeCursor(sc.NewCursor)
			require.NoError(t, decodeErr)
			cursor = decoded
			continue
		}
		rest = append(rest, err)
	}
	return cursor, rest
}

func TestNew(t *testing.T) {
	t.Run("creates connector with valid parameters", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
		conn := New("src-1", cfg, testCreds())

		require.NotNil(t, conn)
		assert.Equal(t, "src-1", conn.SourceID())
	})

	t.Run("implements the connector interface", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
		var conn driven.Connector = New("src-1", cfg, testCreds())
		assert.NotNil(t, conn)
	})
}

func TestConnector_Type(t *testing.T) {
	cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
	conn := New("src-1", cfg, testCreds())

	assert.Equal(t, domain.SourceTypeConfluence, conn.Type())
}

func TestConnector_Capabilities(t *testing.T) {
	cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
	caps := New("src-1", cfg, testCreds()).Capabilities()

	assert.True(t, caps.SupportsIncremental)
	assert.True(t, caps.SupportsHierarchy)
	assert.True(t, caps.RequiresAuth)
	assert.True(t, caps.SupportsCursorReturn)
	assert.True(t, caps.SupportsRateLimiting)
	assert.True(t, caps.SupportsPagination)
	assert.False(t, caps.SupportsWatch)
}

func TestConnector_Close(t *testing.T) {
	newConn := func() *Connector {
		cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
		return New("src-1", cfg, testCreds())
	}

	t.Run("close succeeds", func(t *testing.T) {
		require.NoError(t, newConn().Close())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		conn := newConn()
		require.NoError(t, conn.Close())
		require.NoError(t, conn.Close())
	})

	t.Run("validate after close returns closed error", func(t *testing.T) {
		conn := newConn()
		require.NoError(t, conn.Close())

		err := conn.Validate(context.Background())
		assert.ErrorIs(t, err, domain.ErrConnectorClosed)
	})

	t.Run("full sync after close reports closed error", func(t *testing.T) {
		conn := newConn()
		require.NoError(t, conn.Close())

		docs, errs := collectFull(t, conn)
		assert.Empty(t, docs)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], domain.ErrConnectorClosed)
	})

	t.Run("incremental sync after close reports closed error", func(t *testing.T) {
		conn := newConn()
		require.NoError(t, conn.Close())

		changes, errs := collectIncremental(t, conn, "")
		assert.Empty(t, changes)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], domain.ErrConnectorClosed)
	})
}

func TestParseConfig(t *testing.T) {
	t.Run("parses url and spaces", func(t *testing.T) {
		source := domain.Source{Config: map[string]string{
			"url":    "https://acme.atlassian.net/wiki/",
			"spaces": "ENG, OPS",
		}}

		cfg, err := ParseConfig(source)
		require.NoError(t, err)
		assert.Equal(t, "https://acme.atlassian.net/wiki", cfg.BaseURL)
		assert.Equal(t, []string{"ENG", "OPS"}, cfg.Spaces)
	})

	t.Run("missing url returns error", func(t *testing.T) {
		source := domain.Source{Config: map[string]string{"spaces": "ENG"}}

		_, err := ParseConfig(source)
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})

	t.Run("missing spaces returns error", func(t *testing.T) {
		source := domain.Source{Config: map[string]string{
			"url": "https://acme.atlassian.net/wiki",
		}}

		_, err := ParseConfig(source)
		assert.ErrorIs(t, err, ErrMissingSpaces)
	})

	t.Run("blank space entries are dropped", func(t *testing.T) {
		source := domain.Source{Config: map[string]string{
			"url":    "https://acme.atlassian.net/wiki",
			"spaces": ", ENG ,,",
		}}

		cfg, err := ParseConfig(source)
		require.NoError(t, err)
		assert.Equal(t, []string{"ENG"}, cfg.Spaces)
	})

	t.Run("nil config map returns error", func(t *testing.T) {
		_, err := ParseConfig(domain.Source{})
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})
}

func TestConfig_HasSpace(t *testing.T) {
	cfg := &Config{Spaces: []string{"ENG", "OPS"}}

	assert.True(t, cfg.HasSpace("ENG"))
	assert.True(t, cfg.HasSpace("OPS"))
	assert.False(t, cfg.HasSpace("HR"))
	assert.False(t, cfg.HasSpace(""))
}

func TestCursor(t *testing.T) {
	t.Run("encode and decode round trip", func(t *testing.T) {
		cursor := NewCursor()
		cursor.SetPage("101", "ENG", 3)
		cursor.SetPage("205", "OPS", 12)

		decoded, err := DecodeCursor(cursor.Encode())
		require.NoError(t, err)
		assert.Equal(t, CursorVersion, decoded.Version)
		assert.Equal(t, PageCursor{Version: 3, SpaceKey: "ENG"}, decoded.Pages["101"])
		assert.Equal(t, PageCursor{Version: 12, SpaceKey: "OPS"}, decoded.Pages["205"])
	})

	t.Run("empty string returns fresh cursor", func(t *testing.T) {
		cursor, err := DecodeCursor("")
		require.NoError(t, err)
		assert.Equal(t, CursorVersion, cursor.Version)
		assert.Empty(t, cursor.Pages)
	})

	t.Run("invalid base64 returns error", func(t *testing.T) {
		_, err := DecodeCursor("not-base64!!!")
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("invalid json returns error", func(t *testing.T) {
		_, err := DecodeCursor(base64.StdEncoding.EncodeToString([]byte("not json")))
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("get reports unknown pages", func(t *testing.T) {
		cursor := NewCursor()
		cursor.SetPage("101", "ENG", 3)

		state, ok := cursor.GetPage("101")
		require.True(t, ok)
		assert.Equal(t, 3, state.Version)

		_, ok = cursor.GetPage("999")
		assert.False(t, ok)
	})

	t.Run("set overwrites previous state", func(t *testing.T) {
		cursor := NewCursor()
		cursor.SetPage("101", "ENG", 3)
		cursor.SetPage("101", "ENG", 4)

		state, ok := cursor.GetPage("101")
		require.True(t, ok)
		assert.Equal(t, 4, state.Version)
	})

	t.Run("set initialises a nil map", func(t *testing.T) {
		var cursor Cursor
		cursor.SetPage("101", "ENG", 1)

		_, ok := cursor.GetPage("101")
		assert.True(t, ok)
	})
}

func TestProcessMacros(t *testing.T) {
	t.Run("code macro becomes pre block", func(t *testing.T) {
		html := `<p>Before</p>` +
			`<ac:structured-macro ac:name="code" ac:schema-version="1">` +
			`<ac:parameter ac:name="language">bash</ac:parameter>` +
			`<ac:plain-text-body><![CDATA[make deploy]]></ac:plain-text-body>` +
			`</ac:structured-macro>` +
			`<p>After</p>`

		got := processMacros(html)
		assert.Equal(t, "<p>Before</p><pre><code>make deploy</code></pre><p>After</p>", got)
	})

	t.Run("code macro keeps multiline content", func(t *testing.T) {
		html := `<ac:structured-macro ac:name="code">` +
			"<ac:plain-text-body><![CDATA[line one\nline two]]></ac:plain-text-body>" +
			`</ac:structured-macro>`

		got := processMacros(html)
		assert.Equal(t, "<pre><code>line one\nline two</code></pre>", got)
	})

	t.Run("multiple code macros are all rewritten", func(t *testing.T) {
		macro := `<ac:structured-macro ac:name="code">` +
			`<ac:plain-text-body><![CDATA[one]]></ac:plain-text-body>` +
			`</ac:structured-macro>`

		got := processMacros(macro + `<p>mid</p>` + macro)
		assert.Equal(t, "<pre><code>one</code></pre><p>mid</p><pre><code>one</code></pre>", got)
	})

	t.Run("info macro becomes labelled blockquote", func(t *testing.T) {
		html := `<ac:structured-macro ac:name="info">` +
			`<ac:rich-text-body><p>注意事项</p></ac:rich-text-body>` +
			`</ac:structured-macro>`

		got := processMacros(html)
		assert.Equal(t, "<blockquote><strong>ℹ️ 信息</strong><br/><p>注意事项</p></blockquote>", got)
	})

	t.Run("warning macro becomes labelled blockquote", func(t *testing.T) {
		html := `<ac:structured-macro ac:name="warning" ac:macro-id="w1">` +
			`<ac:rich-text-body><p>不要在生产环境执行</p></ac:rich-text-body>` +
			`</ac:structured-macro>`

		got := processMacros(html)
		assert.Equal(t, "<blockquote><strong>⚠️ 警告</strong><br/><p>不要在生产环境执行</p></blockquote>", got)
	})

	t.Run("plain html passes through", func(t *testing.T) {
		html := `<h2>Setup</h2><p>Install the <a href="https://example.com">CLI</a>.</p>`
		assert.Equal(t, html, processMacros(html))
	})

	t.Run("macro without a known body is left alone", func(t *testing.T) {
		html := `<ac:structured-macro ac:name="code">` +
			`<ac:parameter ac:name="language">go</ac:parameter>` +
			`</ac:structured-macro>`

		assert.Equal(t, html, processMacros(html))
	})
}

func TestPageDocument(t *testing.T) {
	when := time.Date(2024, 5, 20, 9, 15, 0, 0, time.UTC)
	page := &Page{
		ID:    "204",
		Title: "部署指南",
		Ancestors: []Ancestor{
			{ID: "1", Title: "Home"},
			{ID: "7", Title: "运维手册"},
		},
		Version: Version{Number: 7, When: when, By: Author{DisplayName: "张伟"}},
		Body:    Body{Storage: Storage{Value: "<p>先部署到 staging 环境。</p>", Representation: "storage"}},
		Links:   Links{WebUI: "/pages/viewpage.action?pageId=204"},
	}

	doc := pageDocument("https://acme.atlassian.net/wiki", "OPS", page)

	assert.Equal(t, "confluence://OPS/204", doc.URI)
	assert.Equal(t, "text/html", doc.MIMEType)
	assert.Equal(t, "<p>先部署到 staging 环境。</p>", string(doc.Content))
	require.NotNil(t, doc.ParentURI)
	assert.Equal(t, "confluence://OPS/7", *doc.ParentURI)
	assert.Equal(t, "张伟", doc.Author)
	assert.Equal(t, when, doc.ModifiedAt)
	assert.Equal(t, "OPS", doc.Metadata["space"])
	assert.Equal(t, "204", doc.Metadata["page_id"])
	assert.Equal(t, "部署指南", doc.Metadata["title"])
	assert.Equal(t, 7, doc.Metadata["version"])
	assert.Equal(t, "Home/运维手册/部署指南", doc.Metadata["path"])
	assert.Equal(t, "https://acme.atlassian.net/wiki/pages/viewpage.action?pageId=204", doc.Metadata["web_url"])

	t.Run("macros are rewritten in content", func(t *testing.T) {
		macroPage := &Page{
			ID:    "205",
			Title: "Deploy",
			Body: Body{Storage: Storage{Value: `<ac:structured-macro ac:name="code">` +
				`<ac:plain-text-body><![CDATA[make deploy]]></ac:plain-text-body>` +
				`</ac:structured-macro>`}},
		}

		doc := pageDocument("https://acme.atlassian.net/wiki", "OPS", macroPage)
		assert.Equal(t, "<pre><code>make deploy</code></pre>", string(doc.Content))
	})

	t.Run("page without web link has no web url", func(t *testing.T) {
		doc := pageDocument("https://acme.atlassian.net/wiki", "OPS", &Page{ID: "206", Title: "Draft"})
		_, ok := doc.Metadata["web_url"]
		assert.False(t, ok)
	})
}

func TestBuildPageURI(t *testing.T) {
	assert.Equal(t, "confluence://ENG/101", buildPageURI("ENG", "101"))
}

func TestParentURI(t *testing.T) {
	t.Run("no ancestors means no parent", func(t *testing.T) {
		assert.Nil(t, parentURI("ENG", nil))
	})

	t.Run("last ancestor is the parent", func(t *testing.T) {
		parent := parentURI("ENG", []Ancestor{
			{ID: "1", Title: "Home"},
			{ID: "7", Title: "Guides"},
		})
		require.NotNil(t, parent)
		assert.Equal(t, "confluence://ENG/7", *parent)
	})
}

func TestPagePath(t *testing.T) {
	t.Run("joins ancestor titles with the page title", func(t *testing.T) {
		page := &Page{
			Title: "Rollback",
			Ancestors: []Ancestor{
				{ID: "1", Title: "Home"},
				{ID: "7", Title: "Guides"},
			},
		}
		assert.Equal(t, "Home/Guides/Rollback", pagePath(page))
	})

	t.Run("top level page is just its title", func(t *testing.T) {
		assert.Equal(t, "Rollback", pagePath(&Page{Title: "Rollback"}))
	})

	t.Run("untitled ancestors are skipped", func(t *testing.T) {
		page := &Page{
			Title:     "Rollback",
			Ancestors: []Ancestor{{ID: "1"}, {ID: "7", Title: "Guides"}},
		}
		assert.Equal(t, "Guides/Rollback", pagePath(page))
	})
}

func TestConnector_Validate(t *testing.T) {
	t.Run("missing credentials return auth required", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
		conn := New("src-1", cfg, driven.Credentials{})

		err := conn.Validate(context.Background())
		assert.ErrorIs(t, err, domain.ErrAuthRequired)
	})

	t.Run("token without username returns auth required", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
		conn := New("src-1", cfg, driven.Credentials{Token: testToken})

		err := conn.Validate(context.Background())
		assert.ErrorIs(t, err, domain.ErrAuthRequired)
	})

	t.Run("valid credentials pass", func(t *testing.T) {
		site := newFakeSite(t)
		conn := newTestConnector(site, "ENG")

		assert.NoError(t, conn.Validate(context.Background()))
	})

	t.Run("rejected credentials return auth invalid", func(t *testing.T) {
		site := newFakeSite(t)
		cfg := &Config{BaseURL: site.server.URL, Spaces: []string{"ENG"}}
		conn := New("src-1", cfg, driven.Credentials{Username: testUsername, Token: "wrong"})

		err := conn.Validate(context.Background())
		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	})
}

func TestConnector_FullSync(t *testing.T) {
	site := newFakeSite(t)
	site.setPages("ENG",
		fakePage{id: "101", title: "部署指南", version: 3, author: "张伟", body: "<p>先部署到 staging 环境。</p>"},
		fakePage{id: "102", title: "Runbook", version: 1, author: "Lee",
			body:      "<p>On call playbook.</p>",
			ancestors: []fakeAncestor{{id: "101", title: "部署指南"}}},
		fakePage{id: "103", title: "Empty", version: 1, author: "Lee"},
	)

	conn := newTestConnector(site, "ENG")
	docs, errs := collectFull(t, conn)

	cursor, rest := syncCursor(t, errs)
	require.Empty(t, rest)
	require.NotNil(t, cursor)

	// Page 103 has no content and is not emitted, but the cursor
	// still records it
	require.Len(t, docs, 2)
	assert.Len(t, cursor.Pages, 3)
	assert.Equal(t, PageCursor{Version: 3, SpaceKey: "ENG"}, cursor.Pages["101"])
	assert.Equal(t, PageCursor{Version: 1, SpaceKey: "ENG"}, cursor.Pages["103"])

	first := docs[0]
	assert.Equal(t, "confluence://ENG/101", first.URI)
	assert.Equal(t, "src-1", first.SourceID)
	assert.Equal(t, "text/html", first.MIMEType)
	assert.Equal(t, "张伟", first.Author)
	assert.Equal(t, "部署指南", first.Metadata["title"])
	assert.Nil(t, first.ParentURI)

	second := docs[1]
	assert.Equal(t, "confluence://ENG/102", second.URI)
	require.NotNil(t, second.ParentURI)
	assert.Equal(t, "confluence://ENG/101", *second.ParentURI)
	assert.Equal(t, "部署指南/Runbook", second.Metadata["path"])
}

func TestConnector_FullSync_Pagination(t *testing.T) {
	site := newFakeSite(t)
	site.setClamp(2)
	site.setPages("ENG",
		fakePage{id: "201", title: "A", version: 1, body: "<p>a</p>"},
		fakePage{id: "202", title: "B", version: 1, body: "<p>b</p>"},
		fakePage{id: "203", title: "C", version: 1, body: "<p>c</p>"},
		fakePage{id: "204", title: "D", version: 1, body: "<p>d</p>"},
		fakePage{id: "205", title: "E", version: 1, body: "<p>e</p>"},
	)

	conn := newTestConnector(site, "ENG")
	docs, errs := collectFull(t, conn)

	cursor, rest := syncCursor(t, errs)
	require.Empty(t, rest)
	require.NotNil(t, cursor)

	assert.Len(t, docs, 5)
	assert.Len(t, cursor.Pages, 5)

	listCalls, _ := site.counters()
	assert.Equal(t, 3, listCalls)
}

func TestConnector_FullSync_UnknownSpace(t *testing.T) {
	site := newFakeSite(t)
	site.setPages("ENG",
		fakePage{id: "101", title: "Guide", version: 1, body: "<p>hi</p>"},
	)

	conn := newTestConnector(site, "ENG", "GHOST")
	docs, errs := collectFull(t, conn)

	cursor, rest := syncCursor(t, errs)
	assert.Nil(t, cursor)
	require.Len(t, rest, 1)
	assert.ErrorContains(t, rest[0], "space GHOST")
	assert.True(t, IsNotFound(rest[0]))

	// Documents from the healthy space were already emitted
	assert.Len(t, docs, 1)
}

func TestConnector_FullSync_RateLimited(t *testing.T) {
	site := newFakeSite(t)
	site.setRateLimited(true)

	conn := newTestConnector(site, "ENG")
	docs, errs := collectFull(t, conn)

	cursor, rest := syncCursor(t, errs)
	assert.Nil(t, cursor)
	assert.Empty(t, docs)
	require.Len(t, rest, 1)
	assert.ErrorIs(t, rest[0], domain.ErrRateLimited)
}

func TestConnector_IncrementalSync(t *testing.T) {
	site := newFakeSite(t)
	site.setPages("ENG",
		fakePage{id: "101", title: "Guide", version: 3, author: "Lee", body: "<p>v3</p>"},
		fakePage{id: "102", title: "Runbook", version: 1, author: "Lee", body: "<p>steady</p>"},
		fakePage{id: "103", title: "Old", version: 2, author: "Lee", body: "<p>old</p>"},
	)

	conn := newTestConnector(site, "ENG")
	_, errs := collectFull(t, conn)
	cursor, rest := syncCursor(t, errs)
	require.Empty(t, rest)
	require.NotNil(t, cursor)

	// Page 101 changed, 103 was deleted, 104 is new, 102 is untouched
	site.setPages("ENG",
		fakePage{id: "101", title: "Guide", version: 4, author: "Kim", body: "<p>v4</p>"},
		fakePage{id: "102", title: "Runbook", version: 1, author: "Lee", body: "<p>steady</p>"},
		fakePage{id: "104", title: "New page", version: 1, author: "Kim", body: "<p>fresh</p>"},
	)

	changes, errs := collectIncremental(t, conn, cursor.Encode())
	next, rest := syncCursor(t, errs)
	require.Empty(t, rest)
	require.NotNil(t, next)

	byURI := make(map[string]domain.RawDocumentChange, len(changes))
	for _, change := range changes {
		byURI[change.Document.URI] = change
	}
	require.Len(t, changes, 3)

	updated := byURI["confluence://ENG/101"]
	assert.Equal(t, domain.ChangeUpdated, updated.Type)
	assert.Equal(t, "<p>v4</p>", string(updated.Document.Content))
	assert.Equal(t, 4, updated.Document.Metadata["version"])
	assert.Equal(t, "src-1", updated.Document.SourceID)

	created := byURI["confluence://ENG/104"]
	assert.Equal(t, domain.ChangeCreated, created.Type)
	assert.Equal(t, "<p>fresh</p>", string(created.Document.Content))

	deleted := byURI["confluence://ENG/103"]
	assert.Equal(t, domain.ChangeDeleted, deleted.Type)
	assert.Equal(t, "src-1", deleted.Document.SourceID)
	assert.Empty(t, deleted.Document.Content)

	// Only the changed and new pages were fetched in full
	_, getCalls := site.counters()
	assert.Equal(t, 2, getCalls)

	assert.Equal(t, PageCursor{Version: 4, SpaceKey: "ENG"}, next.Pages["101"])
	assert.Equal(t, PageCursor{Version: 1, SpaceKey: "ENG"}, next.Pages["102"])
	assert.Equal(t, PageCursor{Version: 1, SpaceKey: "ENG"}, next.Pages["104"])
	_, stillThere := next.Pages["103"]
	assert.False(t, stillThere)
}

func TestConnector_IncrementalSync_FreshCursor(t *testing.T) {
	site := newFakeSite(t)
	site.setPages("ENG",
		fakePage{id: "101", title: "Guide", version: 1, body: "<p>hi</p>"},
		fakePage{id: "102", title: "Empty", version: 1},
	)

	conn := newTestConnector(site, "ENG")
	changes, errs := collectIncremental(t, conn, "")

	next, rest := syncCursor(t, errs)
	require.Empty(t, rest)
	require.NotNil(t, next)

	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeCreated, changes[0].Type)
	assert.Equal(t, "confluence://ENG/101", changes[0].Document.URI)

	// Both pages were checked, only the empty one stayed unemitted
	assert.Len(t, next.Pages, 2)
	_, getCalls := site.counters()
	assert.Equal(t, 2, getCalls)
}

func TestConnector_IncrementalSync_InvalidCursor(t *testing.T) {
	site := newFakeSite(t)
	conn := newTestConnector(site, "ENG")

	changes, errs := collectIncremental(t, conn, "not-base64!!!")

	assert.Empty(t, changes)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrInvalidCursor)
}

func TestConnector_Watch(t *testing.T) {
	cfg := &Config{BaseURL: "https://acme.atlassian.net/wiki", Spaces: []string{"ENG"}}
	conn := New("src-1", cfg, testCreds())

	ch, err := conn.Watch(context.Background())
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestClient_ListSpacePages(t *testing.T) {
	site := newFakeSite(t)
	site.setPages("ENG",
		fakePage{id: "101", title: "Guide", version: 3, body: "<p>hi</p>"},
	)

	client := NewClient(site.server.URL, testUsername, testToken)
	list, err := client.ListSpacePages(context.Background(), "ENG", expandVersion, 0, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, list.Size)
	require.Len(t, list.Results, 1)
	assert.Equal(t, "101", list.Results[0].ID)
	assert.Equal(t, 3, list.Results[0].Version.Number)

	// The light listing carries no body
	assert.Empty(t, list.Results[0].Body.Storage.Value)
}

func TestClient_GetPage_NotFound(t *testing.T) {
	site := newFakeSite(t)

	client := NewClient(site.server.URL, testUsername, testToken)
	_, err := client.GetPage(context.Background(), "999", expandFull)

	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "No content found with id: 999", apiErr.Message)
	assert.Contains(t, apiErr.URL, "/rest/api/content/999")
}

func TestClient_CurrentUser_Unauthorized(t *testing.T) {
	site := newFakeSite(t)

	client := NewClient(site.server.URL, testUsername, "wrong")
	err := client.CurrentUser(context.Background())

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 404,
		Message:    "No space found with key: GHOST",
		URL:        "https://acme.atlassian.net/wiki/rest/api/content",
	}

	assert.Equal(t,
		"confluence: API error 404: No space found with key: GHOST (URL: https://acme.atlassian.net/wiki/rest/api/content)",
		err.Error())
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "api error 404", err: &APIError{StatusCode: 404}, want: true},
		{name: "api error 500", err: &APIError{StatusCode: 500}, want: false},
		{name: "wrapped api error", err: errors.Join(errors.New("outer"), &APIError{StatusCode: 404}), want: true},
		{name: "plain error", err: errors.New("nope"), want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsUnauthorized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "api error 401", err: &APIError{StatusCode: 401}, want: true},
		{name: "api error 403", err: &APIError{StatusCode: 403}, want: false},
		{name: "plain error", err: errors.New("nope"), want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnauthorized(tt.err))
		})
	}
}
