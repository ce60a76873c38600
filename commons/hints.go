package commons

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/maaend/wsboot"
)

// NextSteps prints what's left to do manually after preparing the install directory
// without the setup command.
func NextSteps(install string, libraryRepo, toolRepo string) wsboot.Task {
	return func(_ context.Context) error {
		wsboot.LogStep("next steps")
		wsboot.LogDetail(fmt.Sprintf("download %s and extract the content of its bin folder into %s", libraryRepo, filepath.Join(install, "maafw")))
		wsboot.LogDetail(fmt.Sprintf("    https://github.com/%s/releases", libraryRepo))
		wsboot.LogDetail(fmt.Sprintf("download %s and extract it into %s", toolRepo, install))
		wsboot.LogDetail(fmt.Sprintf("    https://github.com/%s/releases", toolRepo))
		wsboot.LogDetail("or run the setup command to do both automatically")
		return nil
	}
}

// Ready prints how to verify the prepared workspace.
func Ready(tool, install string) wsboot.Task {
	return func(_ context.Context) error {
		wsboot.LogSuccess(fmt.Sprintf("workspace ready, run %s to verify the installation", tool))
		wsboot.LogDetail(fmt.Sprintf("editing and debugging tools work on top of %s", install))
		return nil
	}
}
