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

func TestFileInstallAtomicRenameAndPermissions(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")

	comp := manifest.Component{Name: "cfg", Type: manifest.TypeFile, Path: target, Permissions: "0640"}
	err := install.File{}.Install(strings.NewReader("version=42\n"), comp, install.Options{})
	require.Nil(t, err)

	got, rerr := os.ReadFile(target)
	require.NoError(t, rerr)
	require.Equal(t, "version=42\n", string(got))

	_, statErr := os.Stat(target + ".tmp")
	require.True(t, os.IsNotExist(statErr))

	fi, ferr := os.Stat(target)
	require.NoError(t, ferr)
	require.Equal(t, os.FileMode(0640), fi.Mode().Perm())
}

func TestFileInstallMissingParentFailsWithoutCreateDestination(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "new", "dir", "out")

	comp := manifest.Component{Name: "cfg", Type: manifest.TypeFile, Path: target}
	err := install.File{}.Install(strings.NewReader("x"), comp, install.Options{})
	require.NotNil(t, err)

	_, statErr := os.Stat(target)
	require.True(t, os.IsNotExist(statErr))
}

func TestFileInstallCreatesDestinationWhenRequested(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "new", "dir", "out")

	comp := manifest.Component{Name: "cfg", Type: manifest.TypeFile, Path: target, CreateDestination: true}
	err := install.File{}.Install(strings.NewReader("x"), comp, install.Options{})
	require.Nil(t, err)

	got, rerr := os.ReadFile(target)
	require.NoError(t, rerr)
	require.Equal(t, "x", string(got))
}

func TestFileInstallRejectsBadPermissions(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")

	comp := manifest.Component{Name: "cfg", Type: manifest.TypeFile, Path: target, Permissions: "not-octal"}
	err := install.File{}.Install(strings.NewReader("x"), comp, install.Options{})
	require.NotNil(t, err)
}

func TestFileInstallLeavesOriginalUnchangedOnPipeFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0644))

	comp := manifest.Component{Name: "cfg", Type: manifest.TypeFile, Path: target}
	err := install.File{}.Install(failingReader{}, comp, install.Options{})
	require.NotNil(t, err)

	got, rerr := os.ReadFile(target)
	require.NoError(t, rerr)
	require.Equal(t, "original", string(got))

	_, statErr := os.Stat(target + ".tmp")
	require.True(t, os.IsNotExist(statErr))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, os.ErrClosed
}
