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
	"path/filepath"
	"strconv"

	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/stream"
)

// File implements the atomic-file strategy: pipe src into "<path>.tmp",
// rename over path on success, and apply permissions.
type File struct{}

// Supports accepts components declared with type "file".
func (File) Supports(comp manifest.Component) bool {
	return comp.Type == manifest.TypeFile
}

// Install writes comp.Path+".tmp", renames it atomically onto comp.Path,
// and chmods the result when comp.Permissions is non-empty.
func (File) Install(src io.Reader, comp manifest.Component, o Options) otaerr.Error {
	if comp.Path == "" {
		return otaerr.New(otaerr.CodeFilesystem, "file install requires path")
	}

	parent := filepath.Dir(comp.Path)
	if _, statErr := os.Stat(parent); statErr != nil {
		if !os.IsNotExist(statErr) {
			return otaerr.Wrapf(statErr, otaerr.CodeFilesystem, "stat %s: %s", parent, statErr.Error())
		}
		if !comp.CreateDestination {
			return otaerr.Wrapf(statErr, otaerr.CodeFilesystem,
				"Destination directory does not exist: %s (set create-destination to create it)", parent)
		}
		if mkErr := os.MkdirAll(parent, 0755); mkErr != nil {
			return otaerr.Wrapf(mkErr, otaerr.CodeFilesystem, "create_destination %s: %s", parent, mkErr.Error())
		}
	}

	tmpPath := comp.Path + ".tmp"
	w, err := stream.OpenPartitionWriter(tmpPath)
	if err != nil {
		return err
	}

	em := newEmitter(comp.Name, o)
	_, perr := pipe(src, w, effectiveFsyncInterval(o), em)
	_ = w.Close()
	if perr != nil {
		_ = os.Remove(tmpPath)
		return perr
	}

	if rerr := os.Rename(tmpPath, comp.Path); rerr != nil {
		_ = os.Remove(tmpPath)
		return otaerr.Wrapf(rerr, otaerr.CodeFilesystem, "rename %s -> %s: %s", tmpPath, comp.Path, rerr.Error())
	}

	if comp.Permissions != "" {
		perm, perr := strconv.ParseUint(comp.Permissions, 8, 32)
		if perr != nil {
			return otaerr.Newf(otaerr.CodeFilesystem, "Invalid permissions value: %s", comp.Permissions)
		}
		if cerr := os.Chmod(comp.Path, os.FileMode(perm)); cerr != nil {
			return otaerr.Wrapf(cerr, otaerr.CodeFilesystem, "chmod %s: %s", comp.Path, cerr.Error())
		}
	}

	return nil
}
