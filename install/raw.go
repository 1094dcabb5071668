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

	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/stream"
)

// Raw implements the raw-partition strategy: pipe the source verbatim
// into comp.InstallTo, a block device or a regular file.
type Raw struct{}

// Supports accepts components declared with type "raw".
func (Raw) Supports(comp manifest.Component) bool {
	return comp.Type == manifest.TypeRaw
}

// Install opens comp.InstallTo via stream.OpenPartitionWriter and pipes src
// into it to clean EOF.
func (Raw) Install(src io.Reader, comp manifest.Component, o Options) otaerr.Error {
	if comp.InstallTo == "" {
		return otaerr.New(otaerr.CodeFilesystem, "raw install requires install_to")
	}

	w, err := stream.OpenPartitionWriter(comp.InstallTo)
	if err != nil {
		return err
	}
	defer w.Close()

	em := newEmitter(comp.Name, o)
	_, perr := pipe(src, w, effectiveFsyncInterval(o), em)
	return perr
}
