// Package binary provisions externally released binaries into a workspace.
//
// At the core, a [Dependency] names the repository publishing the binary, the
// keywords identifying the right release asset for the host and a [Plan] describing
// how the downloaded archive maps onto the destination.
//
// Installing a dependency goes through these steps:
//   - an [AssetResolver] picks the first asset, in release index order, whose name
//     contains every keyword; [GitHubResolver] queries the github releases api
//   - the [Downloader] streams the asset to a scratch directory reporting progress
//   - [Extract] unpacks it, picking zip or tar based on the file extension
//   - the [Plan] locates the files to install; [LibraryPlan] takes the content of the
//     first "bin" directory and [ToolPlan] takes matching top level files
//   - the [Replacer] removes the previous installation, asking a [Decider] what to do
//     while it's locked by a running process
//   - the located files are copied into the destination
//
// Keywords and artifact names are usually derived from a [HostProfile], computed
// once at startup.
//
// example usage
//
//	host, _ := binary.DetectHost()
//	tool, err := binary.New(
//		"mxu",
//		"MistEO/MXU",
//		[]string{"mxu", host.OS, host.Arch},
//		binary.ToolPlan("./install", host.ExecutableFileName("mxu")),
//	)
//	if err != nil {
//		return err
//	}
//
//	// installs unless ./install/mxu is already there
//	if err := tool.Ensure(ctx); err != nil {
//		return fmt.Errorf("failed to provision mxu: %w", err)
//	}
package binary
