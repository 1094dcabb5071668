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

package install

import (
	"io"
	"os"
	"strings"

	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/mount"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/tarextract"
)

// DefaultMountBaseDir is where archive installs mount a block-device target
// before extracting into it, when comp.InstallTo names a /dev/ path.
const DefaultMountBaseDir = "/var/run/ota-mount"

// DefaultMountFsType is the filesystem type passed to MountDevice; the
// installer does not probe the device, it trusts the manifest's intent.
const DefaultMountFsType = "ext4"

const mountDirPrefix = "ota-"

// Archive implements the archive-to-directory strategy: resolve a target
// directory (mounting a block device first when needed), stream-extract
// the nested tar under it, then fully drain src so the outer bundle
// reader can advance past this entry.
type Archive struct{}

// Supports accepts components declared with type "archive".
func (Archive) Supports(comp manifest.Component) bool {
	return comp.Type == manifest.TypeArchive
}

// Install resolves the target directory in order (install_to as a block
// device, then path, then install_to as a directory), extracts src into
// it, and drains any remaining src bytes.
func (a Archive) Install(src io.Reader, comp manifest.Component, o Options) otaerr.Error {
	if strings.HasPrefix(comp.InstallTo, "/dev/") {
		return a.installViaMount(src, comp, o)
	}

	dir := comp.Path
	if dir == "" {
		dir = comp.InstallTo
	}
	if dir == "" {
		return otaerr.New(otaerr.CodeFilesystem, "archive install requires path or install_to")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return otaerr.Wrapf(err, otaerr.CodeFilesystem, "create archive target dir %s: %s", dir, err.Error())
	}

	em := newEmitter(comp.Name, o)
	var done int64
	if err := tarextract.Extract(src, dir, func(n int64) {
		done += n
		em.tick(done)
	}); err != nil {
		drain(src)
		return err
	}
	em.final(done)

	drain(src)
	return nil
}

func (a Archive) installViaMount(src io.Reader, comp manifest.Component, o Options) otaerr.Error {
	ops := o.SystemOps
	if ops == nil {
		ops = mount.UnixSystemOps{}
	}
	baseDir := o.MountBaseDir
	if baseDir == "" {
		baseDir = DefaultMountBaseDir
	}
	fsType := o.MountFsType
	if fsType == "" {
		fsType = DefaultMountFsType
	}

	sess, err := mount.MountDevice(ops, comp.InstallTo, baseDir, mountDirPrefix, fsType, mount.DefaultFlags)
	if err != nil {
		drain(src)
		return err
	}

	em := newEmitter(comp.Name, o)
	var done int64
	extractErr := tarextract.Extract(src, sess.Dir(), func(n int64) {
		done += n
		em.tick(done)
	})

	drain(src)

	if extractErr != nil {
		_ = sess.Close()
		return extractErr
	}
	em.final(done)

	if uerr := sess.Unmount(); uerr != nil {
		return uerr
	}
	return nil
}

// drain discards any bytes left unread in src so the outer bundle
// reader's entry state machine can advance to the next entry.
func drain(src io.Reader) {
	_, _ = io.Copy(io.Discard, src)
}
