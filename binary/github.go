package binary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v52/github"
	"go.uber.org/zap"
)

const (
	githubAPIVersion = "2022-11-28"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "wsboot"
)

// Release is a single entry of a release index.
// The order of assets is the one returned by the index.
type Release struct {
	Assets     []Asset
	Prerelease bool
	Draft      bool
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name string
	URL  string
}

// AssetResolver finds the download location of a release asset.
type AssetResolver interface {
	// Resolve returns the first asset, in index order, whose name contains every keyword.
	// Any failure is reported as an error wrapping [ErrAssetNotFound].
	Resolve(ctx context.Context, repo string, keywords []string, allowPrerelease bool) (Asset, error)
}

// TokenFromEnv returns the github token configured in the environment, if any.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GH_TOKEN"))
}

// GitHubResolver implements [AssetResolver] on top of the github releases api.
// https://docs.github.com/en/rest/releases/releases#list-releases
type GitHubResolver struct {
	client *github.Client
	logger *zap.Logger
}

type resolverconf struct {
	baseurl   string
	token     string
	timeout   time.Duration
	useragent string
	logger    *zap.Logger
}

type ResolverOpt func(c *resolverconf)

// WithAPIBaseURL points the resolver at a different api endpoint, e.g. a github
// enterprise instance or a test server.
func WithAPIBaseURL(base string) ResolverOpt {
	return func(c *resolverconf) {
		c.baseurl = base
	}
}

// WithToken sets the bearer token attached to every request.
// An empty token means anonymous requests.
func WithToken(token string) ResolverOpt {
	return func(c *resolverconf) {
		c.token = token
	}
}

// WithTimeout bounds each request against the release index.
func WithTimeout(timeout time.Duration) ResolverOpt {
	return func(c *resolverconf) {
		c.timeout = timeout
	}
}

// WithResolverLogger sets the structured logger.
func WithResolverLogger(logger *zap.Logger) ResolverOpt {
	return func(c *resolverconf) {
		c.logger = logger
	}
}

// NewGitHubResolver builds a resolver. By default the token is read from the environment.
func NewGitHubResolver(opts ...ResolverOpt) (*GitHubResolver, error) {
	conf := resolverconf{
		token:     TokenFromEnv(),
		timeout:   defaultTimeout,
		useragent: defaultUserAgent,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&conf)
	}

	httpclient := &http.Client{
		Timeout: conf.timeout,
		Transport: &apitransport{
			token: conf.token,
			base:  http.DefaultTransport,
		},
	}

	client := github.NewClient(httpclient)
	client.UserAgent = conf.useragent

	if conf.baseurl != "" {
		base, err := url.Parse(strings.TrimRight(conf.baseurl, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid api base url %s: %w", conf.baseurl, err)
		}
		client.BaseURL = base
	}

	return &GitHubResolver{client: client, logger: conf.logger}, nil
}

func (r *GitHubResolver) Resolve(ctx context.Context, repo string, keywords []string, allowPrerelease bool) (Asset, error) {
	logstep(fmt.Sprintf("fetching releases of %s", repo))

	releases, err := r.releases(ctx, repo)

	var asset Asset
	if err == nil {
		asset, err = SelectAsset(releases, keywords, allowPrerelease)
	}

	if err != nil {
		r.logger.Error("release resolution failed",
			zap.String("repo", repo),
			zap.Strings("keywords", keywords),
			zap.Error(err),
		)
		logfailure(err)
		return Asset{}, fmt.Errorf("%w: %w", ErrAssetNotFound, err)
	}

	r.logger.Info("release asset resolved",
		zap.String("repo", repo),
		zap.String("asset", asset.Name),
		zap.String("url", asset.URL),
	)
	logdetail(fmt.Sprintf("matched asset %s", asset.Name))

	return asset, nil
}

// releases fetches the index and converts it into the local model, rejecting entries
// that don't carry the fields resolution relies on.
func (r *GitHubResolver) releases(ctx context.Context, repo string) ([]Release, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid repository identifier %q, expected owner/name", repo)
	}

	payload, _, err := r.client.Repositories.ListReleases(ctx, owner, name, nil)
	if err != nil {
		var syntaxerr *json.SyntaxError
		var typeerr *json.UnmarshalTypeError
		if errors.As(err, &syntaxerr) || errors.As(err, &typeerr) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedIndex, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if len(payload) == 0 {
		return nil, ErrEmptyIndex
	}

	releases := make([]Release, 0, len(payload))
	for i, rel := range payload {
		if rel == nil {
			return nil, fmt.Errorf("%w: release #%d is null", ErrMalformedIndex, i)
		}

		converted := Release{
			Prerelease: rel.GetPrerelease(),
			Draft:      rel.GetDraft(),
			Assets:     make([]Asset, 0, len(rel.Assets)),
		}

		for j, asset := range rel.Assets {
			if asset == nil || asset.GetName() == "" || asset.GetBrowserDownloadURL() == "" {
				return nil, fmt.Errorf("%w: asset #%d of release %s lacks a name or download url", ErrMalformedIndex, j, rel.GetTagName())
			}
			converted.Assets = append(converted.Assets, Asset{
				Name: asset.GetName(),
				URL:  asset.GetBrowserDownloadURL(),
			})
		}

		releases = append(releases, converted)
	}

	return releases, nil
}

// SelectAsset walks releases and their assets in order and returns the first asset
// whose lowercase name contains every keyword.
//
// Drafts are always skipped; prereleases only when allowPrerelease is false.
func SelectAsset(releases []Release, keywords []string, allowPrerelease bool) (Asset, error) {
	if len(releases) == 0 {
		return Asset{}, ErrEmptyIndex
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lowered = append(lowered, strings.ToLower(kw))
	}

	for _, rel := range releases {
		if (!allowPrerelease && rel.Prerelease) || rel.Draft {
			continue
		}

		for _, asset := range rel.Assets {
			if containsAll(strings.ToLower(asset.Name), lowered) {
				return asset, nil
			}
		}
	}

	return Asset{}, ErrNoMatchingAsset
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// apitransport decorates requests with the headers expected by the github api.
type apitransport struct {
	token string
	base  http.RoundTripper
}

func (t *apitransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}
