package mount_test

import (
	"errors"
	"os"
	"testing"

	"github.com/anhhao17/ota-updater/mount"
	"github.com/stretchr/testify/require"
)

type fakeOps struct {
	mkdirAllErr  error
	mkdirTempErr error
	mountErr     error
	unmountErr   error
	removed      []string
	mounted      []string
	tempDir      string
}

func (f *fakeOps) MkdirAll(path string, perm os.FileMode) error {
	return f.mkdirAllErr
}

func (f *fakeOps) MkdirTemp(dir, pattern string) (string, error) {
	if f.mkdirTempErr != nil {
		return "", f.mkdirTempErr
	}
	if f.tempDir == "" {
		f.tempDir = dir + "/mnt-stub"
	}
	return f.tempDir, nil
}

func (f *fakeOps) Mount(device, target, fsType string, flags uintptr) error {
	if f.mountErr != nil {
		return f.mountErr
	}
	f.mounted = append(f.mounted, target)
	return nil
}

func (f *fakeOps) Unmount(target string) error {
	return f.unmountErr
}

func (f *fakeOps) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

func TestMountDeviceSucceeds(t *testing.T) {
	ops := &fakeOps{}
	sess, err := mount.MountDevice(ops, "/dev/sda1", "/mnt/base", "ota-", "ext4", mount.DefaultFlags)
	require.Nil(t, err)
	require.NotEmpty(t, sess.Dir())
	require.Contains(t, ops.mounted, sess.Dir())
}

func TestMountDeviceCleansUpOnMountFailure(t *testing.T) {
	ops := &fakeOps{mountErr: errors.New("mount failed")}
	_, err := mount.MountDevice(ops, "/dev/sda1", "/mnt/base", "ota-", "ext4", mount.DefaultFlags)
	require.NotNil(t, err)
	require.NotEmpty(t, ops.removed)
}

func TestUnmountIsIdempotent(t *testing.T) {
	ops := &fakeOps{}
	sess, err := mount.MountDevice(ops, "/dev/sda1", "/mnt/base", "ota-", "ext4", mount.DefaultFlags)
	require.Nil(t, err)

	require.Nil(t, sess.Unmount())
	require.Nil(t, sess.Unmount())
}

func TestUnmountFailureKeepsStateForRetry(t *testing.T) {
	ops := &fakeOps{unmountErr: errors.New("busy")}
	sess, err := mount.MountDevice(ops, "/dev/sda1", "/mnt/base", "ota-", "ext4", mount.DefaultFlags)
	require.Nil(t, err)

	uerr := sess.Unmount()
	require.NotNil(t, uerr)

	ops.unmountErr = nil
	require.Nil(t, sess.Unmount())
}
