package binary

import (
	"fmt"
	"runtime"
	"strings"
	"text/template"
)

// HostProfile identifies the platform the workspace is prepared for.
// It's computed once at startup and passed down explicitly, so nothing in this
// package reads the host identity on its own.
type HostProfile struct {
	// OS is the release keyword of the operating system ("win", "linux", "macos").
	OS string
	// Arch is the release keyword of the architecture ("x86_64", "aarch64").
	Arch string
}

var oskeywords = map[string]string{
	"windows": "win",
	"win":     "win",
	"linux":   "linux",
	"darwin":  "macos",
	"macos":   "macos",
}

var archkeywords = map[string]string{
	"amd64":   "x86_64",
	"x86_64":  "x86_64",
	"arm64":   "aarch64",
	"aarch64": "aarch64",
}

// DetectHost builds the profile of the running machine.
func DetectHost() (HostProfile, error) {
	return NewHostProfile(runtime.GOOS, runtime.GOARCH)
}

// NewHostProfile maps os and arch identifiers, in either go or release notation,
// to a HostProfile. Unknown values are rejected.
func NewHostProfile(osname, arch string) (HostProfile, error) {
	oskw, ok := oskeywords[strings.ToLower(osname)]
	if !ok {
		return HostProfile{}, fmt.Errorf("unrecognized operating system: %s", osname)
	}

	archkw, ok := archkeywords[strings.ToLower(arch)]
	if !ok {
		return HostProfile{}, fmt.Errorf("unrecognized architecture: %s", arch)
	}

	return HostProfile{OS: oskw, Arch: archkw}, nil
}

// GOOS returns the go toolchain name of the profile operating system.
func (h HostProfile) GOOS() string {
	switch h.OS {
	case "win":
		return "windows"
	case "macos":
		return "darwin"
	default:
		return h.OS
	}
}

// GOARCH returns the go toolchain name of the profile architecture.
func (h HostProfile) GOARCH() string {
	switch h.Arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return h.Arch
	}
}

// IsWindows reports whether the profile targets windows.
func (h HostProfile) IsWindows() bool {
	return h.OS == "win"
}

// Extension is the executable suffix; ".exe" on windows and empty elsewhere.
func (h HostProfile) Extension() string {
	if h.IsWindows() {
		return ".exe"
	}
	return ""
}

// LibPrefix is the dynamic library name prefix; "lib" everywhere but windows.
func (h HostProfile) LibPrefix() string {
	if h.IsWindows() {
		return ""
	}
	return "lib"
}

// LibExtension is the dynamic library suffix of the platform.
func (h HostProfile) LibExtension() string {
	switch h.OS {
	case "win":
		return ".dll"
	case "macos":
		return ".dylib"
	default:
		return ".so"
	}
}

// LibraryFileName returns the platform file name of a dynamic library.
// e.g. "MaaFramework" becomes "libMaaFramework.so" on linux.
func (h HostProfile) LibraryFileName(name string) string {
	return h.LibPrefix() + name + h.LibExtension()
}

// ExecutableFileName returns the platform file name of an executable.
func (h HostProfile) ExecutableFileName(name string) string {
	return name + h.Extension()
}

func (h HostProfile) String() string {
	return h.OS + "/" + h.Arch
}

// Resolve executes the provided format string as a template with the profile as data.
// e.g. "{{.LibPrefix}}MaaFramework{{.LibExtension}}" or "mxu{{.Extension}}".
func (h HostProfile) Resolve(format string) (string, error) {
	tmpl, err := template.New("host").Parse(format)
	if err != nil {
		return "", err
	}

	var bld strings.Builder
	if err := tmpl.Execute(&bld, h); err != nil {
		return "", err
	}

	return bld.String(), nil
}

// ResolveAll resolves every format string, stopping at the first failure.
func (h HostProfile) ResolveAll(formats []string) ([]string, error) {
	resolved := make([]string, 0, len(formats))
	for _, format := range formats {
		value, err := h.Resolve(format)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", format, err)
		}
		resolved = append(resolved, value)
	}
	return resolved, nil
}
