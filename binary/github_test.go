package binary

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectAsset(t *testing.T) {
	releases := []Release{
		{
			Draft: true,
			Assets: []Asset{
				{Name: "tool-win-x86_64-draft.zip", URL: "https://example.com/draft"},
			},
		},
		{
			Prerelease: true,
			Assets: []Asset{
				{Name: "tool-win-x86_64-beta.zip", URL: "https://example.com/beta"},
				{Name: "tool-linux-aarch64-beta.tar.gz", URL: "https://example.com/beta-linux"},
			},
		},
		{
			Assets: []Asset{
				{Name: "Tool-WIN-x86_64.zip", URL: "https://example.com/stable"},
				{Name: "tool-win-x86_64-debug.zip", URL: "https://example.com/stable-debug"},
				{Name: "tool-macos-aarch64.tar.gz", URL: "https://example.com/stable-mac"},
			},
		},
	}

	tests := []struct {
		name       string
		keywords   []string
		prerelease bool
		expected   string
		wantErr    error
	}{
		{
			name:     "stable release when prereleases are excluded",
			keywords: []string{"tool", "win", "x86_64"},
			expected: "https://example.com/stable",
		},
		{
			name:       "prerelease first in index order when allowed",
			keywords:   []string{"tool", "win", "x86_64"},
			prerelease: true,
			expected:   "https://example.com/beta",
		},
		{
			name:     "keywords are case insensitive",
			keywords: []string{"TOOL", "Win"},
			expected: "https://example.com/stable",
		},
		{
			name:     "keywords are substrings, not tokens",
			keywords: []string{"ool-mac", "arch6"},
			expected: "https://example.com/stable-mac",
		},
		{
			name:       "only matches inside the prerelease",
			keywords:   []string{"linux"},
			prerelease: true,
			expected:   "https://example.com/beta-linux",
		},
		{
			name:     "prerelease only asset is not found when excluded",
			keywords: []string{"linux"},
			wantErr:  ErrNoMatchingAsset,
		},
		{
			name:     "every keyword has to match",
			keywords: []string{"tool", "win", "arm"},
			wantErr:  ErrNoMatchingAsset,
		},
	}

	for _, test := range tests {
		t.Run(test.name,
			func(t *testing.T) {
				asset, err := SelectAsset(releases, test.keywords, test.prerelease)

				if test.wantErr != nil {
					assert.ErrorIs(t, err, test.wantErr)
					return
				}

				require.NoError(t, err)
				assert.Equal(t, test.expected, asset.URL)
			},
		)
	}
}

// Drafts are skipped even when prereleases are allowed; the guard is
// "(prerelease and not allowed) or draft".
func TestSelectAsset_DraftsAlwaysSkipped(t *testing.T) {
	releases := []Release{
		{Draft: true, Prerelease: true, Assets: []Asset{{Name: "tool-win.zip", URL: "draft"}}},
		{Draft: true, Assets: []Asset{{Name: "tool-win.zip", URL: "draft-stable"}}},
	}

	for _, allow := range []bool{true, false} {
		_, err := SelectAsset(releases, []string{"tool"}, allow)
		assert.ErrorIs(t, err, ErrNoMatchingAsset, "allowPrerelease=%v", allow)
	}
}

func TestSelectAsset_FirstMatchWins(t *testing.T) {
	releases := []Release{
		{
			Assets: []Asset{
				{Name: "tool-win-x86_64.7z", URL: "first"},
				{Name: "tool-win-x86_64.zip", URL: "second"},
			},
		},
		{
			Assets: []Asset{
				{Name: "tool-win-x86_64.zip", URL: "older"},
			},
		},
	}

	asset, err := SelectAsset(releases, []string{"tool", "win", "x86_64"}, false)
	require.NoError(t, err)
	assert.Equal(t, "first", asset.URL)
}

func TestSelectAsset_EmptyIndex(t *testing.T) {
	_, err := SelectAsset(nil, []string{"tool"}, true)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func releaseServer(t *testing.T, handler http.HandlerFunc) *GitHubResolver {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	resolver, err := NewGitHubResolver(WithAPIBaseURL(server.URL), WithToken(""))
	require.NoError(t, err)
	return resolver
}

func TestGitHubResolver_Resolve(t *testing.T) {
	var headers http.Header

	resolver := releaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/X/Y/releases" {
			http.NotFound(w, r)
			return
		}
		headers = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{
				"tag_name": "v1.0.0",
				"prerelease": false,
				"draft": false,
				"assets": [
					{"name": "tool-win-x86_64.zip", "browser_download_url": "https://example.com/tool-win-x86_64.zip"}
				]
			}
		]`)
	})

	asset, err := resolver.Resolve(context.Background(), "X/Y", []string{"tool", "win", "x86_64"}, false)
	require.NoError(t, err)

	assert.Equal(t, "tool-win-x86_64.zip", asset.Name)
	assert.Equal(t, "https://example.com/tool-win-x86_64.zip", asset.URL)

	assert.Equal(t, "application/vnd.github+json", headers.Get("Accept"))
	assert.Equal(t, "2022-11-28", headers.Get("X-GitHub-Api-Version"))
	assert.Empty(t, headers.Get("Authorization"))
}

func TestGitHubResolver_Token(t *testing.T) {
	var authorization string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		fmt.Fprint(w, `[{"assets": [{"name": "a", "browser_download_url": "https://example.com/a"}]}]`)
	}))
	defer server.Close()

	resolver, err := NewGitHubResolver(WithAPIBaseURL(server.URL), WithToken("secret"))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "X/Y", []string{"a"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", authorization)
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", " fallback ")
	assert.Equal(t, "fallback", TokenFromEnv())

	t.Setenv("GITHUB_TOKEN", "primary")
	assert.Equal(t, "primary", TokenFromEnv())
}

func TestGitHubResolver_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "empty index",
			status:  http.StatusOK,
			body:    `[]`,
			wantErr: ErrEmptyIndex,
		},
		{
			name:    "no matching asset",
			status:  http.StatusOK,
			body:    `[{"assets": [{"name": "other-linux.tar.gz", "browser_download_url": "https://example.com/x"}]}]`,
			wantErr: ErrNoMatchingAsset,
		},
		{
			name:    "not a list",
			status:  http.StatusOK,
			body:    `{"message": "hello"}`,
			wantErr: ErrMalformedIndex,
		},
		{
			name:    "broken json",
			status:  http.StatusOK,
			body:    `[{"assets": [`,
			wantErr: ErrMalformedIndex,
		},
		{
			name:    "asset without url",
			status:  http.StatusOK,
			body:    `[{"assets": [{"name": "tool-win.zip"}]}]`,
			wantErr: ErrMalformedIndex,
		},
		{
			name:    "rate limited",
			status:  http.StatusForbidden,
			body:    `{"message": "API rate limit exceeded"}`,
			wantErr: ErrNetwork,
		},
	}

	for _, test := range tests {
		t.Run(test.name,
			func(t *testing.T) {
				resolver := releaseServer(t, func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(test.status)
					fmt.Fprint(w, test.body)
				})

				asset, err := resolver.Resolve(context.Background(), "X/Y", []string{"tool", "win"}, false)

				assert.ErrorIs(t, err, ErrAssetNotFound)
				assert.ErrorIs(t, err, test.wantErr)
				assert.Equal(t, Asset{}, asset)
			},
		)
	}
}

func TestGitHubResolver_InvalidRepository(t *testing.T) {
	resolver, err := NewGitHubResolver()
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "missing-slash", nil, false)
	assert.ErrorIs(t, err, ErrAssetNotFound)
	assert.ErrorContains(t, err, "owner/name")
}

func TestGitHubResolver_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	resolver, err := NewGitHubResolver(WithAPIBaseURL(base))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "X/Y", []string{"tool"}, false)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "network", Category(err))
}
