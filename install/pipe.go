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

// Package install implements the three installer strategies (raw, archive,
// file) over a shared pipe helper and progress-emission cadence, built on
// stream.FileWriter for the raw/file targets and on tarextract for the
// archive target.
package install

import (
	"io"

	"github.com/anhhao17/ota-updater/mount"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/progress"
	"github.com/anhhao17/ota-updater/stream"
)

const (
	// DefaultChunkSize is the pipe helper's read chunk size.
	DefaultChunkSize = 1 << 20
	// DefaultFsyncIntervalBytes fsyncs the destination every 1 MiB written.
	DefaultFsyncIntervalBytes = 1 << 20
	// DefaultProgressIntervalBytes emits a tick every 4 MiB of input read.
	DefaultProgressIntervalBytes = 4 << 20
)

// Options carries the per-dispatch budget and sink the coordinator
// assembles before invoking a strategy.
type Options struct {
	ComponentTotalBytes  int64
	OverallTotalBytes    int64
	OverallDoneBaseBytes int64
	Sink                 progress.Sink

	// FsyncIntervalBytes overrides the intermediate-fsync cadence. Nil
	// selects DefaultFsyncIntervalBytes; a pointer to 0 disables
	// intermediate fsyncs entirely.
	FsyncIntervalBytes    *int64
	ProgressIntervalBytes int64

	// BytesIn samples the dispatch wrapper's live input counter; progress
	// cadence and comp_done are measured on input bytes read when present.
	// Strategies fall back to bytes written when nil (direct invocation).
	BytesIn func() int64

	// SystemOps, MountBaseDir, and MountFsType configure the archive
	// strategy's mount session when comp.InstallTo names a block device.
	// SystemOps defaults to mount.UnixSystemOps{} when nil.
	SystemOps    mount.SystemOps
	MountBaseDir string
	MountFsType  string
}

// emitter tracks the progress-emission cadence shared by the pipe helper
// and the archive strategy's block-by-block extraction callback.
type emitter struct {
	sink          progress.Sink
	name          string
	compTotal     int64
	overallTotal  int64
	overallBase   int64
	intervalBytes int64
	bytesIn       func() int64
	lastAt        int64
	started       bool
}

func newEmitter(name string, o Options) *emitter {
	interval := o.ProgressIntervalBytes
	if interval <= 0 {
		interval = DefaultProgressIntervalBytes
	}
	return &emitter{
		sink:          o.Sink,
		name:          name,
		compTotal:     o.ComponentTotalBytes,
		overallTotal:  o.OverallTotalBytes,
		overallBase:   o.OverallDoneBaseBytes,
		intervalBytes: interval,
		bytesIn:       o.BytesIn,
	}
}

func (e *emitter) done(fallback int64) int64 {
	if e.bytesIn != nil {
		return e.bytesIn()
	}
	return fallback
}

func (e *emitter) emit(compDone int64) {
	if e.sink == nil {
		return
	}
	_ = e.sink.Emit(progress.Event{
		Component:    e.name,
		CompDone:     compDone,
		CompTotal:    e.compTotal,
		OverallDone:  e.overallBase + compDone,
		OverallTotal: e.overallTotal,
	})
	e.lastAt = compDone
}

func (e *emitter) tick(fallback int64) {
	compDone := e.done(fallback)
	if !e.started || compDone-e.lastAt >= e.intervalBytes {
		e.started = true
		e.emit(compDone)
	}
}

func (e *emitter) final(fallback int64) {
	e.emit(e.done(fallback))
}

// pipe pulls bytes from src in DefaultChunkSize chunks, writes each chunk in
// full to dst, fsyncs every fsyncIntervalBytes (0 disables intermediate
// fsyncs), and ticks em after every chunk. It fsyncs once more and emits a
// final event at clean EOF.
func pipe(src io.Reader, dst stream.Writer, fsyncIntervalBytes int64, em *emitter) (int64, otaerr.Error) {
	buf := make([]byte, DefaultChunkSize)
	var written, sinceFsync int64

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if werr := dst.WriteAll(buf[:n]); werr != nil {
				return written, otaerr.Wrapf(werr, otaerr.CodeFilesystem, "write: %s", werr.Error())
			}
			written += int64(n)
			sinceFsync += int64(n)

			if fsyncIntervalBytes > 0 && sinceFsync >= fsyncIntervalBytes {
				if ferr := dst.FsyncNow(); ferr != nil {
					return written, otaerr.Wrapf(ferr, otaerr.CodeFilesystem, "fsync: %s", ferr.Error())
				}
				sinceFsync = 0
			}

			em.tick(written)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if oe, ok := rerr.(otaerr.Error); ok {
				return written, oe
			}
			return written, otaerr.Wrapf(rerr, otaerr.CodeFilesystem, "read: %s", rerr.Error())
		}
	}

	if err := dst.FsyncNow(); err != nil {
		return written, otaerr.Wrapf(err, otaerr.CodeFilesystem, "final fsync: %s", err.Error())
	}
	em.final(written)

	return written, nil
}

func effectiveFsyncInterval(o Options) int64 {
	if o.FsyncIntervalBytes != nil {
		return *o.FsyncIntervalBytes
	}
	return DefaultFsyncIntervalBytes
}
