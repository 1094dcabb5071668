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

// Package deviceconfig loads the device-config JSON file carrying
// current_slot and hw_compatibility, accepting dashed key aliases and an
// environment-variable override for the file's path.
package deviceconfig

import (
	"os"

	"github.com/spf13/viper"

	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/otaerr"
)

// EnvOverride is the environment variable that overrides the default
// device-config path.
const EnvOverride = "OTA_DEVICE_CONFIG"

// DefaultPath is used when EnvOverride is unset.
const DefaultPath = "/etc/ota/ota.conf"

// Load resolves the device-config path (env override, else DefaultPath
// when path is empty) and decodes it with viper, accepting both the
// dashed and underscored key spellings.
func Load(path string) (manifest.DeviceConfig, otaerr.Error) {
	v := viper.New()
	v.SetConfigFile(resolvePath(path))
	// .conf does not map to a known viper decoder; the file is JSON.
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return manifest.DeviceConfig{}, otaerr.Wrapf(err, otaerr.CodeFilesystem, "read device config: %s", err.Error())
	}

	dev := manifest.DeviceConfig{
		CurrentSlot:     firstNonEmpty(v.GetString("current_slot"), v.GetString("current-slot")),
		HwCompatibility: firstNonEmpty(v.GetString("hw_compatibility"), v.GetString("hw-compatibility")),
	}

	if dev.CurrentSlot == "" {
		return manifest.DeviceConfig{}, otaerr.New(otaerr.CodeManifestSchema, "device config missing current_slot")
	}
	if dev.HwCompatibility == "" {
		return manifest.DeviceConfig{}, otaerr.New(otaerr.CodeManifestSchema, "device config missing hw_compatibility")
	}

	return dev, nil
}

func resolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(EnvOverride); env != "" {
		return env
	}
	return DefaultPath
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
