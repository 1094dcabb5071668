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

// Package manifest implements the bundle manifest data model: Component
// and Manifest types, permissive-on-unknown-keys / strict-on-types JSON
// parsing, slot selection and version comparison. Component-field presence
// rules are enforced with go-playground/validator struct tags.
package manifest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/anhhao17/ota-updater/otaerr"
)

// SlotPrefix is the fixed prefix every slot-section key must carry.
const SlotPrefix = "slot-"

// ComponentType enumerates the installer strategies a component may select.
type ComponentType string

const (
	TypeRaw     ComponentType = "raw"
	TypeArchive ComponentType = "archive"
	TypeFile    ComponentType = "file"
)

// Component is one unit of installation, immutable once parsed.
type Component struct {
	Name              string        `json:"name" validate:"required"`
	Type              ComponentType `json:"type" validate:"required,oneof=raw archive file"`
	Filename          string        `json:"filename" validate:"required"`
	Size              int64         `json:"size"`
	SHA256            string        `json:"sha256"`
	Version           string        `json:"version"`
	Force             bool          `json:"force"`
	InstallTo         string        `json:"install_to"`
	Path              string        `json:"path"`
	Permissions       string        `json:"permissions"`
	CreateDestination bool          `json:"create-destination"`
}

// Manifest is the parsed bundle manifest. Exactly one of Components or
// SlotComponents is populated after Select.
type Manifest struct {
	Version         string                 `json:"version"`
	HwCompatibility string                 `json:"hw_compatibility"`
	ForceAll        bool                   `json:"force_all"`
	Components      []Component            `json:"components"`
	SlotComponents  map[string][]Component `json:"-"`
}

// DeviceConfig is supplied by an external loader (internal/deviceconfig).
type DeviceConfig struct {
	CurrentSlot     string
	HwCompatibility string
}

var validate = validator.New()

type rawManifest struct {
	Version         string                     `json:"version"`
	HwCompatibility string                     `json:"hw_compatibility"`
	ForceAll        bool                       `json:"force_all"`
	Components      []json.RawMessage          `json:"components"`
	Extra           map[string]json.RawMessage `json:"-"`
}

type slotSection struct {
	Components []json.RawMessage `json:"components"`
}

// Parse decodes raw manifest JSON, applying per-field defaults and
// permissive-on-unknown-keys / strict-on-types semantics.
func Parse(raw []byte) (*Manifest, otaerr.Error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "parse manifest: %s", err.Error())
	}

	m := &Manifest{SlotComponents: map[string][]Component{}}

	if v, ok := top["version"]; ok {
		if err := json.Unmarshal(v, &m.Version); err != nil {
			return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "version: %s", err.Error())
		}
	}
	if v, ok := top["hw_compatibility"]; ok {
		if err := json.Unmarshal(v, &m.HwCompatibility); err != nil {
			return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "hw_compatibility: %s", err.Error())
		}
	}
	if v, ok := top["force_all"]; ok {
		if err := json.Unmarshal(v, &m.ForceAll); err != nil {
			return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "force_all: %s", err.Error())
		}
	}

	if v, ok := top["components"]; ok {
		var rawComps []json.RawMessage
		if err := json.Unmarshal(v, &rawComps); err != nil {
			return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "components must be an array: %s", err.Error())
		}
		comps, perr := parseComponents(rawComps)
		if perr != nil {
			return nil, perr
		}
		m.Components = comps
	}

	for key, v := range top {
		if key == "version" || key == "hw_compatibility" || key == "force_all" || key == "components" {
			continue
		}
		if !strings.HasPrefix(key, SlotPrefix) {
			continue
		}
		var sec slotSection
		if err := json.Unmarshal(v, &sec); err != nil {
			return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "%s must be an object with a components array: %s", key, err.Error())
		}
		comps, perr := parseComponents(sec.Components)
		if perr != nil {
			return nil, perr
		}
		m.SlotComponents[key] = comps
	}

	if len(m.Components) == 0 && len(m.SlotComponents) == 0 {
		return nil, otaerr.New(otaerr.CodeManifestSchema, "manifest has neither components nor slot_components")
	}

	return m, nil
}

func parseComponents(raw []json.RawMessage) ([]Component, otaerr.Error) {
	out := make([]Component, 0, len(raw))
	for _, r := range raw {
		c := Component{Version: "0.0.0"}
		if err := json.Unmarshal(r, &c); err != nil {
			return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "component: %s", err.Error())
		}
		if c.Version == "" {
			c.Version = "0.0.0"
		}
		if err := validate.Struct(c); err != nil {
			return nil, otaerr.Wrapf(err, otaerr.CodeManifestSchema, "component %q: %s", c.Name, err.Error())
		}
		out = append(out, c)
	}
	return out, nil
}

// Select produces a new manifest whose Components is the device's slot
// list.
func Select(m *Manifest, dev DeviceConfig) (*Manifest, otaerr.Error) {
	if dev.CurrentSlot == "" {
		return nil, otaerr.New(otaerr.CodeManifestSchema, "device current_slot is empty")
	}
	if dev.HwCompatibility == "" {
		return nil, otaerr.New(otaerr.CodeManifestSchema, "device hw_compatibility is empty")
	}
	if len(m.SlotComponents) == 0 {
		return nil, otaerr.New(otaerr.CodeManifestSchema, "manifest has no slot_components")
	}
	// device configs report the slot id with or without the section prefix.
	key := dev.CurrentSlot
	if !strings.HasPrefix(key, SlotPrefix) {
		key = SlotPrefix + key
	}
	comps, ok := m.SlotComponents[key]
	if !ok {
		return nil, otaerr.Newf(otaerr.CodeManifestSchema, "slot key absent: %s", key)
	}
	if m.HwCompatibility != dev.HwCompatibility {
		return nil, otaerr.Newf(otaerr.CodeManifestSchema, "hw_compatibility mismatch: manifest=%s device=%s", m.HwCompatibility, dev.HwCompatibility)
	}

	return &Manifest{
		Version:         m.Version,
		HwCompatibility: m.HwCompatibility,
		ForceAll:        m.ForceAll,
		Components:      comps,
		SlotComponents:  map[string][]Component{},
	}, nil
}

// CompareVersions splits both dotted-decimal strings by ".", parsing each
// field as an integer (non-numeric parses as 0), pads the shorter side
// with zeros, and compares component-wise. Returns -1, 0, or 1.
func CompareVersions(a, b string) int {
	af := strings.Split(a, ".")
	bf := strings.Split(b, ".")
	n := len(af)
	if len(bf) > n {
		n = len(bf)
	}
	for i := 0; i < n; i++ {
		av := fieldAt(af, i)
		bv := fieldAt(bf, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func fieldAt(fields []string, i int) int {
	if i >= len(fields) {
		return 0
	}
	v, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0
	}
	return v
}

// ShouldUpdate reports whether comp should be installed given the parent
// manifest's force_all flag and the currently-installed version.
func ShouldUpdate(comp Component, m *Manifest, currentVersion string) bool {
	return m.ForceAll || comp.Force || CompareVersions(comp.Version, currentVersion) > 0
}
