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
	"context"
	"io"
	"os"
	"time"

	"github.com/anhhao17/ota-updater/archivepath"
	"github.com/anhhao17/ota-updater/bundle"
	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/mount"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/otalog"
	"github.com/anhhao17/ota-updater/progress"
)

// Config is everything Run needs to perform one OTA install: open input,
// read manifest, select slot, pre-scan, coordinate install, behind one
// call the CLI owns the exit code for.
type Config struct {
	// InputPath is the bundle source: a regular file path, or "-" for
	// stdin (which disables pre-scan).
	InputPath string
	Device    manifest.DeviceConfig
	Sink      progress.Sink

	RequireAllComponents bool

	SystemOps    mount.SystemOps
	MountBaseDir string
	MountFsType  string
}

// Result is the outcome of a completed Run.
type Result struct {
	ComponentsInstalled int
	OverallTotalBytes   int64
	Duration            time.Duration
}

// Run executes one full OTA install against cfg, returning as soon as the
// bundle is exhausted or a fatal error occurs. Destructor-driven cleanup
// (temp files, mount sessions) always runs via the packages Run calls into,
// regardless of which step fails.
func Run(ctx context.Context, cfg Config) (Result, otaerr.Error) {
	start := time.Now()
	otalog.Infof("OTA install starting: input=%s slot=%s", cfg.InputPath, cfg.Device.CurrentSlot)

	src, closer, err := openInput(cfg.InputPath)
	if err != nil {
		return Result{}, err
	}
	defer closer()

	br, berr := bundle.Open(newCancellable(ctx, src))
	if berr != nil {
		return Result{}, berr
	}

	first, eof, nerr := br.Next()
	if nerr != nil {
		return Result{}, nerr
	}
	if eof || archivepath.Normalize(first.Name) != ManifestEntryName {
		return Result{}, otaerr.Newf(otaerr.CodeTarFraming, "first bundle entry must be %s", ManifestEntryName)
	}

	manifestJSON, merr := br.ReadCurrentToString()
	if merr != nil {
		return Result{}, merr
	}

	m, perr := manifest.Parse([]byte(manifestJSON))
	if perr != nil {
		return Result{}, perr
	}

	selected, serr := manifest.Select(m, cfg.Device)
	if serr != nil {
		return Result{}, serr
	}

	var overallTotal int64
	if cfg.InputPath != StdinPath {
		overallTotal = PreScan(func() (io.Reader, error) {
			return os.Open(cfg.InputPath)
		}, selected.Components)
	}
	otalog.Infof("pre-scan complete: overall_total_bytes=%d", overallTotal)

	coord := NewCoordinator(br, selected.Components, Options{
		OverallTotalBytes:    overallTotal,
		Sink:                 cfg.Sink,
		RequireAllComponents: cfg.RequireAllComponents,
		SystemOps:            cfg.SystemOps,
		MountBaseDir:         cfg.MountBaseDir,
		MountFsType:          cfg.MountFsType,
	})

	if rerr := coord.Run(); rerr != nil {
		otalog.Errorf("OTA install failed: %s", rerr.Error())
		return Result{}, rerr
	}

	res := Result{
		ComponentsInstalled: len(selected.Components),
		OverallTotalBytes:   overallTotal,
		Duration:            time.Since(start),
	}
	otalog.Infof("OTA install complete: components=%d duration=%s", res.ComponentsInstalled, res.Duration)
	return res, nil
}

func openInput(path string) (io.Reader, func(), otaerr.Error) {
	if path == StdinPath {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, func() {}, otaerr.Wrapf(err, otaerr.CodeFilesystem, "open input %s: %s", path, err.Error())
	}
	return f, func() { _ = f.Close() }, nil
}

// cancellableReader checks ctx between reads: once the context is done,
// the next read fails with an "interrupted" error that unwinds through
// the whole pipeline.
type cancellableReader struct {
	ctx context.Context
	src io.Reader
}

func newCancellable(ctx context.Context, src io.Reader) io.Reader {
	return &cancellableReader{ctx: ctx, src: src}
}

func (c *cancellableReader) Read(p []byte) (int, error) {
	select {
	case <-c.ctx.Done():
		return 0, otaerr.New(otaerr.CodeCancelled, "interrupted")
	default:
	}
	return c.src.Read(p)
}
