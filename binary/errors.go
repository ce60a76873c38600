package binary

import "errors"

var (
	// ErrAssetNotFound is returned by the resolver for any failure; the specific
	// reason is wrapped alongside it.
	ErrAssetNotFound = errors.New("asset not found")

	ErrEmptyIndex         = errors.New("release index is empty")
	ErrNoMatchingAsset    = errors.New("no matching asset found")
	ErrMalformedIndex     = errors.New("malformed release index")
	ErrNetwork            = errors.New("network failure")
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrLayoutMismatch     = errors.New("artifact layout mismatch")
	ErrLocked             = errors.New("resource is locked")
	ErrFilesystem         = errors.New("filesystem failure")
	ErrUserAborted        = errors.New("aborted by user")
)

var categories = []struct {
	err  error
	code string
}{
	{ErrEmptyIndex, "empty-index"},
	{ErrNoMatchingAsset, "no-matching-asset"},
	{ErrMalformedIndex, "malformed-index"},
	{ErrNetwork, "network"},
	{ErrUnsupportedArchive, "unsupported-archive"},
	{ErrLayoutMismatch, "layout-mismatch"},
	{ErrUserAborted, "aborted"},
	{ErrLocked, "locked"},
	{ErrFilesystem, "filesystem"},
}

// Category returns the short code describing the kind of failure,
// or "error" when the failure doesn't belong to a known category.
func Category(err error) string {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "error"
}
