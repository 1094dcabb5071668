package install_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anhhao17/ota-updater/install"
	"github.com/anhhao17/ota-updater/manifest"
	"github.com/stretchr/testify/require"
)

func TestRawSupports(t *testing.T) {
	r := install.Raw{}
	require.True(t, r.Supports(manifest.Component{Type: manifest.TypeRaw}))
	require.False(t, r.Supports(manifest.Component{Type: manifest.TypeFile}))
}

func TestRawInstallWritesRegularFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "partition.img")

	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeRaw, InstallTo: target}
	err := install.Raw{}.Install(strings.NewReader("raw-bytes"), comp, install.Options{})
	require.Nil(t, err)

	got, rerr := os.ReadFile(target)
	require.NoError(t, rerr)
	require.Equal(t, "raw-bytes", string(got))
}

func TestRawInstallRequiresInstallTo(t *testing.T) {
	err := install.Raw{}.Install(strings.NewReader("x"), manifest.Component{Type: manifest.TypeRaw}, install.Options{})
	require.NotNil(t, err)
}
