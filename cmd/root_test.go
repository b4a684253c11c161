package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/data-desk-eco/notebook-index/internal/domain"
	"github.com/data-desk-eco/notebook-index/internal/output"
	"github.com/data-desk-eco/notebook-index/internal/store"
)

func TestExitCode(t *testing.T) {
	testCases := []struct {
		err      error
		expected int
	}{
		{err: fmt.Errorf("collect: %w", domain.ErrAuthentication), expected: exitAuthentication},
		{err: fmt.Errorf("collect: %w", domain.ErrUpstreamUnavailable), expected: exitUpstream},
		{err: fmt.Errorf("write: %w", domain.ErrStorageWrite), expected: exitStorage},
		{err: errors.New("bad flag"), expected: exitFailure},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, exitCode(tc.err), tc.err.Error())
	}
}

// runCommand executes the root command with args, capturing what the UI prints
// to stdout and stderr.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	saved := ui
	ui = &output.UI{Out: out, ErrOut: errOut}
	t.Cleanup(func() { ui = saved })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestProjectsCommand_JSON(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "projects.db")

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Replace(context.Background(), []domain.ProjectRecord{{
		Name:        "proxy-tool",
		Description: "Intercepting proxy",
		URL:         "https://research.datadesk.eco/proxy-tool/",
		RepoURL:     "https://github.com/data-desk-eco/proxy-tool",
		CreatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}}))
	require.NoError(t, s.Close())

	out, errOut, err := runCommand(t, "projects", "--db", dbPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Read 1 projects from "+dbPath+" (sqlite)")
	assert.Contains(t, out, `"name": "proxy-tool"`)
	assert.Contains(t, out, `"url": "https://research.datadesk.eco/proxy-tool/"`)
}

func TestProjectsCommand_TableMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "fresh.db")

	_, _, err := runCommand(t, "projects", "--db", dbPath, "--json=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no projects table yet")
}

func TestRefreshCommand_RequiresToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")

	_, _, err := runCommand(t, "refresh", "--db", filepath.Join(t.TempDir(), "projects.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, exitAuthentication, exitCode(err))
}

// orgReposBody is one page of the repositories endpoint: one publishable repository,
// the index site, a private repository and one without pages.
const orgReposBody = `[
	{"name": "proxy-tool", "description": "Intercepting proxy", "html_url": "https://github.com/data-desk-eco/proxy-tool",
	 "private": false, "visibility": "public", "has_pages": true, "created_at": "2024-05-01T00:00:00Z"},
	{"name": "data-desk-eco.github.io", "description": "Index", "private": false, "visibility": "public",
	 "has_pages": true, "created_at": "2023-01-01T00:00:00Z"},
	{"name": "secret", "description": "x", "private": true, "visibility": "private", "has_pages": true,
	 "created_at": "2023-01-01T00:00:00Z"},
	{"name": "scratch", "description": "notes", "private": false, "visibility": "public", "has_pages": false,
	 "created_at": "2023-01-01T00:00:00Z"}
]`

func TestRefreshCommand_PublishesToDatabase(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orgs/data-desk-eco/repos", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, orgReposBody)
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()

	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("NOTEBOOK_INDEX_API_URL", server.URL)
	dbPath := filepath.Join(t.TempDir(), "projects.db")

	out, errOut, err := runCommand(t, "refresh", "--db", dbPath, "--org", "data-desk-eco")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Published 1 of 4 repositories to "+dbPath)
	assert.Contains(t, out, `"published": 1`)
	assert.Contains(t, out, `"fetched": 4`)
	assert.NotContains(t, out, `"warnings"`)

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ProjectRecord{{
		Name:        "proxy-tool",
		Description: "Intercepting proxy",
		URL:         "https://research.datadesk.eco/proxy-tool/",
		RepoURL:     "https://github.com/data-desk-eco/proxy-tool",
		CreatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}}, got)
}
