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

// Package ota drives a full OTA run: the install coordinator walking
// bundle entries, the pre-scanner computing the overall byte budget, and
// the top-level Run orchestration the CLI calls.
package ota

import (
	"github.com/hashicorp/go-multierror"

	"github.com/anhhao17/ota-updater/archivepath"
	"github.com/anhhao17/ota-updater/bundle"
	"github.com/anhhao17/ota-updater/install"
	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/mount"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/otalog"
	"github.com/anhhao17/ota-updater/progress"
	"github.com/anhhao17/ota-updater/stage"
	"github.com/anhhao17/ota-updater/update"
)

// Options configures one coordinator run.
type Options struct {
	// OverallTotalBytes is the pre-scanned byte budget (0 = unknown).
	OverallTotalBytes int64
	Sink              progress.Sink

	// RequireAllComponents opts into a stricter completeness check:
	// after the walk, every manifest filename must have been consumed
	// from the bundle.
	RequireAllComponents bool

	SystemOps    mount.SystemOps
	MountBaseDir string
	MountFsType  string
}

// Coordinator walks a bundle, staging+verifying and dispatching each
// matching entry.
type Coordinator struct {
	br    *bundle.Reader
	index map[string]manifest.Component
	opts  Options
	mod   *update.Module
}

// NewCoordinator builds a coordinator over an already-open bundle reader
// and the manifest's selected components, indexed by filename.
func NewCoordinator(br *bundle.Reader, comps []manifest.Component, opts Options) *Coordinator {
	idx := make(map[string]manifest.Component, len(comps))
	for _, c := range comps {
		idx[c.Filename] = c
	}
	return &Coordinator{br: br, index: idx, opts: opts, mod: update.New(nil)}
}

// Run walks every bundle entry, installing each one whose normalized name
// matches a manifest component, and returns once the bundle is exhausted.
func (c *Coordinator) Run() otaerr.Error {
	var overallDoneBase int64
	consumed := make(map[string]bool, len(c.index))

	for {
		info, eof, err := c.br.Next()
		if err != nil {
			return err
		}
		if eof {
			break
		}

		name := archivepath.Normalize(info.Name)
		comp, ok := c.index[name]
		if !ok {
			if serr := c.br.SkipCurrent(); serr != nil {
				return serr
			}
			continue
		}

		if derr := c.installOne(comp, info, &overallDoneBase); derr != nil {
			return derr
		}
		consumed[comp.Filename] = true

		if serr := c.br.SkipCurrent(); serr != nil {
			return serr
		}
	}

	if c.opts.RequireAllComponents {
		return c.checkCompleteness(consumed)
	}
	return nil
}

func (c *Coordinator) installOne(comp manifest.Component, info bundle.EntryInfo, overallDoneBase *int64) otaerr.Error {
	otalog.WithFields(otalog.Fields{"component": comp.Name, "type": comp.Type}).Info("installing component")

	entryReader, err := c.br.OpenCurrentEntryReader()
	if err != nil {
		return otaerr.Component(comp.Name, err)
	}

	var reader = entryReader
	if comp.SHA256 != "" {
		staged, serr := stage.Verify(entryReader, comp.SHA256)
		if serr != nil {
			return otaerr.Component(comp.Name, serr)
		}
		defer staged.Close()
		reader = stagedStreamReader{staged}
	}

	compTotal := comp.Size
	if compTotal <= 0 {
		compTotal = info.Size
	}

	iopts := install.Options{
		ComponentTotalBytes:  compTotal,
		OverallTotalBytes:    c.opts.OverallTotalBytes,
		OverallDoneBaseBytes: *overallDoneBase,
		Sink:                 c.opts.Sink,
		SystemOps:            c.opts.SystemOps,
		MountBaseDir:         c.opts.MountBaseDir,
		MountFsType:          c.opts.MountFsType,
	}

	if _, derr := c.mod.Dispatch(reader, comp, iopts); derr != nil {
		return otaerr.Component(comp.Name, derr)
	}

	*overallDoneBase += compTotal
	return nil
}

func (c *Coordinator) checkCompleteness(consumed map[string]bool) otaerr.Error {
	var merr *multierror.Error
	for filename := range c.index {
		if !consumed[filename] {
			merr = multierror.Append(merr, otaerr.Newf(otaerr.CodeManifestSchema,
				"manifest component entry missing from ota.tar: %s", filename))
		}
	}
	if merr.ErrorOrNil() == nil {
		return nil
	}
	return otaerr.Wrap(otaerr.CodeManifestSchema, "bundle incomplete", merr)
}

// stagedStreamReader adapts *stage.Staged's *os.File to the stream.Reader
// contract the dispatch pipeline expects, with a known total size.
type stagedStreamReader struct {
	s *stage.Staged
}

func (r stagedStreamReader) Read(p []byte) (int, error) {
	return r.s.Reader().Read(p)
}

func (r stagedStreamReader) TotalSize() (int64, bool) {
	fi, err := r.s.Reader().Stat()
	if err != nil {
		return 0, false
	}
	return fi.Size(), true
}
