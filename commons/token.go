package commons

import (
	"context"

	"github.com/maaend/wsboot"
)

// TokenReport tells whether api requests will be authenticated.
// Anonymous requests work but are heavily rate limited by github.
func TokenReport(token string) wsboot.Task {
	return func(_ context.Context) error {
		if token != "" {
			wsboot.LogStep("github token configured, api requests will be authenticated")
			return nil
		}

		wsboot.LogWarn("no github token configured, api requests will be anonymous and may be rate limited")
		wsboot.LogDetail("set GITHUB_TOKEN or GH_TOKEN if you hit the api rate limit")
		return nil
	}
}
