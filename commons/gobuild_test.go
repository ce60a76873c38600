package commons

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolchainSemver(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"go1.24.1", "v1.24.1", false},
		{"go1.24", "v1.24.0", false},
		{"1.22", "v1.22.0", false},
		{"go1.25rc1", "v1.25.0", false},
		{"go1.24.0 X:nocoverageredesign", "v1.24.0", false},
		{"devel go1.26-abcdef", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toolchainSemver(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModuleRequirements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	content := "module github.com/maaend/go-service\n\ngo 1.23.4\n\nrequire github.com/stretchr/testify v1.10.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	version, module, err := ModuleRequirements(path)
	require.NoError(t, err)
	assert.Equal(t, "v1.23.4", version)
	assert.Equal(t, "github.com/maaend/go-service", module)
}

func TestModuleRequirements_Failures(t *testing.T) {
	_, _, err := ModuleRequirements(filepath.Join(t.TempDir(), "go.mod"))
	assert.ErrorContains(t, err, "failed to read")

	path := filepath.Join(t.TempDir(), "go.mod")
	require.NoError(t, os.WriteFile(path, []byte("module (\n"), 0o644))
	_, _, err = ModuleRequirements(path)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestAgentLDFlags(t *testing.T) {
	assert.Equal(t, []string{"-s", "-w"}, agentLDFlags(""))
	assert.Equal(t, []string{"-s", "-w", "-X", "main.Version=v1.2.3"}, agentLDFlags("v1.2.3"))
}
