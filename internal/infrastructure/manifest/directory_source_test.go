package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

const cameraManifest = `package: com.example.camera
uid: 10007
target_platform: 7.1.0
requests:
  - capability: camera.capture
  - capability: location.precise
    granted: true
`

const legacyManifest = `package: com.example.legacy
uid: 10012
target_platform: 5.0.0
ephemeral: true
requests:
  - capability: contacts.read
    granted: true
`

func writeManifests(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func Test_DirectorySource_LoadsManifests(t *testing.T) {
	t.Parallel()

	dir := writeManifests(t, map[string]string{
		"camera.yaml": cameraManifest,
		"legacy.yml":  legacyManifest,
		"notes.txt":   "not a manifest",
	})

	source, err := NewDirectorySource(dir)
	require.NoError(t, err)

	app, err := source.ApplicationByPackage(context.Background(), "com.example.camera")
	require.NoError(t, err)
	assert.Equal(t, 10007, app.UID)
	assert.Equal(t, "7.1.0", app.TargetPlatform)
	assert.False(t, app.Ephemeral)
	require.Len(t, app.Requests, 2)
	assert.Equal(t, capabilities.CapabilityRequest{Name: "camera.capture"}, app.Requests[0])
	assert.Equal(t, capabilities.CapabilityRequest{Name: "location.precise", Granted: true}, app.Requests[1])

	apps, err := source.Applications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "com.example.camera", apps[0].Package)
	assert.Equal(t, "com.example.legacy", apps[1].Package)
	assert.True(t, apps[1].Ephemeral)
}

func Test_DirectorySource_UnknownPackage(t *testing.T) {
	t.Parallel()

	dir := writeManifests(t, map[string]string{"camera.yaml": cameraManifest})
	source, err := NewDirectorySource(dir)
	require.NoError(t, err)

	_, err = source.ApplicationByPackage(context.Background(), "com.missing.app")
	require.Error(t, err)
	assert.ErrorIs(t, err, capabilities.ErrNotFound)
}

func Test_DirectorySource_EmptyDirectory(t *testing.T) {
	t.Parallel()

	source, err := NewDirectorySource(t.TempDir())
	require.NoError(t, err)

	apps, err := source.Applications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func Test_DirectorySource_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewDirectorySource(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "read manifest directory")
}

func Test_DirectorySource_RejectsInvalidManifests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "unknown field",
			manifest: "package: com.example.app\nuid: 1\ntarget_platform: 7.0.0\nlabel: oops\n",
			wantErr:  "decode manifest",
		},
		{
			name:     "missing package",
			manifest: "uid: 1\ntarget_platform: 7.0.0\n",
			wantErr:  "package is required",
		},
		{
			name:     "non-positive uid",
			manifest: "package: com.example.app\ntarget_platform: 7.0.0\n",
			wantErr:  "uid must be positive",
		},
		{
			name:     "bad target platform",
			manifest: "package: com.example.app\nuid: 1\ntarget_platform: latest\n",
			wantErr:  "invalid target platform version",
		},
		{
			name:     "request without capability",
			manifest: "package: com.example.app\nuid: 1\ntarget_platform: 7.0.0\nrequests:\n  - granted: true\n",
			wantErr:  "has no capability name",
		},
		{
			name:     "empty file",
			manifest: "",
			wantErr:  "manifest is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeManifests(t, map[string]string{"app.yaml": tt.manifest})
			_, err := NewDirectorySource(dir)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func Test_DirectorySource_RejectsDuplicatePackages(t *testing.T) {
	t.Parallel()

	dir := writeManifests(t, map[string]string{
		"one.yaml": cameraManifest,
		"two.yaml": cameraManifest,
	})

	_, err := NewDirectorySource(dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "duplicate package")
}
