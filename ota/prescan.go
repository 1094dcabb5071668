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

package ota

import (
	"io"

	"github.com/anhhao17/ota-updater/archivepath"
	"github.com/anhhao17/ota-updater/bundle"
	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/otalog"
)

// StdinPath is the sentinel input path denoting standard input; it
// disables pre-scan since stdin cannot be opened a second time.
const StdinPath = "-"

// PreScan re-opens the bundle from a fresh reader, skips the manifest
// entry, and sums comp.Size (falling back to the entry's declared size)
// for every entry name that matches a component in comps. Any open/read
// error yields 0 so progress reporting falls back to "unknown overall".
func PreScan(open func() (io.Reader, error), comps []manifest.Component) int64 {
	index := make(map[string]int64, len(comps))
	for _, c := range comps {
		index[c.Filename] = c.Size
	}

	src, err := open()
	if err != nil {
		otalog.Warnf("pre-scan: open failed: %s", err.Error())
		return 0
	}
	if closer, ok := src.(io.Closer); ok {
		defer closer.Close()
	}

	br, berr := bundle.Open(src)
	if berr != nil {
		otalog.Warnf("pre-scan: bundle open failed: %s", berr.Error())
		return 0
	}

	// skip the manifest entry (first regular-file entry, by contract).
	if first, eof, nerr := br.Next(); nerr != nil || eof || archivepath.Normalize(first.Name) != ManifestEntryName {
		return 0
	}
	if serr := br.SkipCurrent(); serr != nil {
		return 0
	}

	var total int64
	for {
		info, eof, nerr := br.Next()
		if nerr != nil {
			otalog.Warnf("pre-scan: %s", nerr.Error())
			return 0
		}
		if eof {
			break
		}

		name := archivepath.Normalize(info.Name)
		if declared, ok := index[name]; ok {
			if declared > 0 {
				total += declared
			} else {
				total += info.Size
			}
		}

		if serr := br.SkipCurrent(); serr != nil {
			return 0
		}
	}

	return total
}
