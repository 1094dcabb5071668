/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package mount implements a scoped mount session: mount a device under a
// uniquely-named subdirectory of a base directory, with cleanup on partial
// failure and an idempotent unmount. The host mount/umount vocabulary is
// abstracted behind SystemOps so tests can stub the syscalls without root.
package mount

import (
	"os"

	"github.com/anhhao17/ota-updater/otaerr"
)

// DefaultFlags requests relative-atime updates, the only flag the
// installer needs by default.
const DefaultFlags = RelAtime

// RelAtime is the mount flag bit for relative atime updates (MS_RELATIME on
// Linux). Declared here rather than imported from x/sys/unix so SystemOps
// implementations stay free to interpret flags for their own platform.
const RelAtime = 1 << 21

// SystemOps abstracts the mkdir/mount/umount/rmdir vocabulary so tests can
// stub it without root privileges.
type SystemOps interface {
	MkdirAll(path string, perm os.FileMode) error
	MkdirTemp(dir, pattern string) (string, error)
	Mount(device, target, fsType string, flags uintptr) error
	Unmount(target string) error
	Remove(path string) error
}

// Session is a live mount, created by MountDevice. Its directory is removed
// and the mount point unmounted exactly once, whether via Unmount or Close.
type Session struct {
	ops     SystemOps
	dir     string
	mounted bool
}

// MountDevice creates base_dir if needed, creates a uniquely-named
// subdirectory under it (prefix + atomically-chosen suffix), and mounts
// device of fsType with flags there. Any failure in this sequence cleans up
// the partially-acquired subdirectory and returns the error.
func MountDevice(ops SystemOps, device, baseDir, prefix, fsType string, flags uintptr) (*Session, otaerr.Error) {
	if err := ops.MkdirAll(baseDir, 0755); err != nil {
		return nil, otaerr.Wrapf(err, otaerr.CodeMount, "create base dir %s: %s", baseDir, err.Error())
	}

	dir, err := ops.MkdirTemp(baseDir, prefix+"*")
	if err != nil {
		return nil, otaerr.Wrapf(err, otaerr.CodeMount, "create mount dir under %s: %s", baseDir, err.Error())
	}

	if err := ops.Mount(device, dir, fsType, flags); err != nil {
		_ = ops.Remove(dir)
		return nil, otaerr.Wrapf(err, otaerr.CodeMount, "mount %s at %s: %s", device, dir, err.Error())
	}

	return &Session{ops: ops, dir: dir, mounted: true}, nil
}

// Dir is the mount point's absolute path.
func (s *Session) Dir() string {
	return s.dir
}

// Unmount is idempotent: safe to call explicitly before Close; on failure
// the session keeps its mounted state so Close can retry.
func (s *Session) Unmount() otaerr.Error {
	if !s.mounted {
		return nil
	}
	if err := s.ops.Unmount(s.dir); err != nil {
		return otaerr.Wrapf(err, otaerr.CodeMount, "unmount %s: %s", s.dir, err.Error())
	}
	s.mounted = false
	if err := s.ops.Remove(s.dir); err != nil {
		return otaerr.Wrapf(err, otaerr.CodeMount, "remove mount dir %s: %s", s.dir, err.Error())
	}
	return nil
}

// Close unmounts and removes the mount directory if still mounted, so a
// deferred Close cleans up every exit path.
func (s *Session) Close() error {
	if err := s.Unmount(); err != nil {
		return err
	}
	return nil
}
