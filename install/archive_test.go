package install_test

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/anhhao17/ota-updater/install"
	"github.com/anhhao17/ota-updater/manifest"
	"github.com/stretchr/testify/require"
)

// fakeMountOps stands in for the real mount(2)/umount(2) syscalls so the
// archive strategy's block-device path can be exercised without root,
// mirroring mount_test.go's fakeOps.
type fakeMountOps struct {
	mounted []string
	removed []string
}

func (f *fakeMountOps) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (f *fakeMountOps) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (f *fakeMountOps) Mount(device, target, fsType string, flags uintptr) error {
	f.mounted = append(f.mounted, target)
	return nil
}

func (f *fakeMountOps) Unmount(target string) error {
	return nil
}

func (f *fakeMountOps) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

func buildNestedTar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0644}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestArchiveInstallExtractsIntoPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "rootfs")

	payload := buildNestedTar(t, map[string]string{"etc/os-release": "NAME=TestOS\n"})
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeArchive, Path: target}

	err := install.Archive{}.Install(bytes.NewReader(payload), comp, install.Options{})
	require.Nil(t, err)

	got, rerr := os.ReadFile(filepath.Join(target, "etc/os-release"))
	require.NoError(t, rerr)
	require.Equal(t, "NAME=TestOS\n", string(got))
}

func TestArchiveInstallPrefersPathOverInstallTo(t *testing.T) {
	dir := t.TempDir()
	pathTarget := filepath.Join(dir, "by-path")

	payload := buildNestedTar(t, map[string]string{"f.txt": "x"})
	comp := manifest.Component{
		Name:      "rootfs",
		Type:      manifest.TypeArchive,
		Path:      pathTarget,
		InstallTo: filepath.Join(dir, "by-install-to"),
	}

	err := install.Archive{}.Install(bytes.NewReader(payload), comp, install.Options{})
	require.Nil(t, err)

	_, rerr := os.ReadFile(filepath.Join(pathTarget, "f.txt"))
	require.NoError(t, rerr)

	_, statErr := os.Stat(filepath.Join(dir, "by-install-to"))
	require.True(t, os.IsNotExist(statErr))
}

func TestArchiveInstallMountsBlockDeviceTarget(t *testing.T) {
	dir := t.TempDir()
	ops := &fakeMountOps{}

	payload := buildNestedTar(t, map[string]string{"etc/os-release": "NAME=TestOS\n"})
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeArchive, InstallTo: "/dev/mmcblk0p2"}

	err := install.Archive{}.Install(bytes.NewReader(payload), comp, install.Options{
		SystemOps:    ops,
		MountBaseDir: dir,
	})
	require.Nil(t, err)
	require.Len(t, ops.mounted, 1)

	got, rerr := os.ReadFile(filepath.Join(ops.mounted[0], "etc/os-release"))
	require.NoError(t, rerr)
	require.Equal(t, "NAME=TestOS\n", string(got))
}

func TestArchiveInstallRequiresPathOrInstallTo(t *testing.T) {
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeArchive}
	err := install.Archive{}.Install(bytes.NewReader(nil), comp, install.Options{})
	require.NotNil(t, err)
}

func TestArchiveInstallFailsOnUnsafePath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "rootfs")

	payload := buildNestedTar(t, map[string]string{"../escape.txt": "pwned"})
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeArchive, Path: target}

	err := install.Archive{}.Install(bytes.NewReader(payload), comp, install.Options{})
	require.NotNil(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	require.True(t, os.IsNotExist(statErr))
}
