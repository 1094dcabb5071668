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

// Package update implements component-install dispatch: it owns the
// ordered installer registry, wraps the source reader with counting
// (always) and gzip (when comp.Filename ends in ".gz") before handing it
// to the first strategy whose Supports predicate accepts the component.
package update

import (
	"strings"

	"github.com/anhhao17/ota-updater/install"
	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/stream"
)

// Module dispatches a component install to the first matching strategy.
type Module struct {
	strategies []install.Strategy
}

// New builds a dispatch module over strategies, in priority order. A nil
// slice uses install.DefaultStrategies().
func New(strategies []install.Strategy) *Module {
	if strategies == nil {
		strategies = install.DefaultStrategies()
	}
	return &Module{strategies: strategies}
}

// Dispatch wraps src in a counting reader, then a gzip reader when
// comp.Filename ends in ".gz", and invokes the first strategy whose
// Supports(comp) predicate returns true. The counting wrapper's live
// counter is lent to the strategy through o.BytesIn so progress is
// measured on input bytes regardless of compression.
func (m *Module) Dispatch(src stream.Reader, comp manifest.Component, o install.Options) (*stream.CountingReader, otaerr.Error) {
	if src == nil {
		return nil, otaerr.New(otaerr.CodeTarFraming, "nil source reader")
	}

	counting := stream.NewCountingReader(src)
	o.BytesIn = counting.BytesIn

	var effective stream.Reader = counting
	if strings.HasSuffix(comp.Filename, ".gz") {
		gz, err := stream.NewGzipReader(counting)
		if err != nil {
			return counting, err
		}
		effective = gz
	}

	for _, strat := range m.strategies {
		if strat.Supports(comp) {
			if err := strat.Install(effective, comp, o); err != nil {
				return counting, err
			}
			return counting, nil
		}
	}

	return counting, otaerr.Newf(otaerr.CodeManifestSchema, "unknown component type: %s", comp.Type)
}
