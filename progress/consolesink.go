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

package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/anhhao17/ota-updater/otalog"
)

// Line renders the single-line textual form "[<c>] <p>% | OTA <o>%", or
// "| OTA --" when the overall total is unknown.
func (e Event) Line() string {
	if !e.OverallKnown() {
		return fmt.Sprintf("[%s] %d%% | OTA --", e.Component, e.CompPercent())
	}
	return fmt.Sprintf("[%s] %d%% | OTA %d%%", e.Component, e.CompPercent(), e.OverallPercent())
}

// ConsoleSink repaints a single carriage-return line per tick, advancing a
// newline exactly once per component reaching 100% and once when the
// overall run reaches 100%. Built on vbauerster/mpb/v8: the bar filler is
// rendered blank and a decor.Any decorator carries the literal line text,
// so mpb owns the carriage-return redraw discipline while the content
// stays the installer's one-line format. The sink drives mpb with a
// manual refresh channel so it fully controls when the line is repainted,
// which is what makes SuspendLine/ResumeLine sound.
type ConsoleSink struct {
	mu           sync.Mutex
	out          io.Writer
	p            *mpb.Progress
	bar          *mpb.Bar
	refresh      chan interface{}
	line         atomic.Value
	doneComps    map[string]bool
	overallAtEnd bool
}

// NewConsoleSink creates a console sink writing to out and registers its
// line guard with the logger.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	s := &ConsoleSink{out: out, doneComps: map[string]bool{}, refresh: make(chan interface{})}
	s.line.Store("")

	s.p = mpb.New(mpb.WithOutput(out), mpb.WithWidth(1), mpb.WithManualRefresh(s.refresh))
	s.bar = s.p.New(100,
		mpb.BarStyle().Lbound(" ").Rbound(" ").Filler(" ").Tip(" ").Padding(" "),
		mpb.PrependDecorators(decor.Any(func(decor.Statistics) string {
			return s.line.Load().(string)
		})),
	)

	otalog.SetLineGuard(s.SuspendLine, s.ResumeLine)
	return s
}

// CurrentLine returns the most recently rendered line, independent of
// mpb's own redraw timing.
func (s *ConsoleSink) CurrentLine() string {
	return s.line.Load().(string)
}

// SuspendLine erases the in-flight progress line so a log record can own
// the terminal row.
func (s *ConsoleSink) SuspendLine() {
	fmt.Fprint(s.out, "\r\x1b[K")
}

// ResumeLine repaints the line a log record displaced.
func (s *ConsoleSink) ResumeLine() {
	s.kick()
}

func (s *ConsoleSink) kick() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Emit updates the repainted line and, on a component or overall 100% edge,
// advances exactly one newline.
func (s *ConsoleSink) Emit(e Event) error {
	s.line.Store(e.Line())
	s.bar.SetCurrent(int64(e.OverallPercent()))
	s.kick()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CompTotal > 0 && e.CompDone >= e.CompTotal && !s.doneComps[e.Component] {
		s.doneComps[e.Component] = true
		fmt.Fprintln(s.out)
	}
	if e.OverallKnown() && e.OverallDone >= e.OverallTotal && !s.overallAtEnd {
		s.overallAtEnd = true
		fmt.Fprintln(s.out)
	}

	return nil
}

// Close deregisters the line guard and stops the underlying mpb container.
func (s *ConsoleSink) Close() {
	otalog.SetLineGuard(nil, nil)
	s.bar.Abort(true)
	s.p.Wait()
}
