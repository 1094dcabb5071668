package manifest_test

import (
	"testing"

	"github.com/anhhao17/ota-updater/manifest"
	"github.com/stretchr/testify/require"
)

func TestParseFlatComponents(t *testing.T) {
	raw := []byte(`{
		"version": "1.0",
		"hw_compatibility": "board-v2",
		"components": [
			{"name": "app", "type": "file", "filename": "app.bin", "path": "/opt/app"}
		]
	}`)

	m, err := manifest.Parse(raw)
	require.Nil(t, err)
	require.Len(t, m.Components, 1)
	require.Equal(t, "0.0.0", m.Components[0].Version)
	require.Equal(t, "", m.Components[0].Permissions)
}

func TestParseHonorsDashedCreateDestinationKey(t *testing.T) {
	raw := []byte(`{
		"hw_compatibility": "board-v2",
		"components": [
			{"name": "app", "type": "file", "filename": "app.bin", "path": "/opt/app", "create-destination": true}
		]
	}`)

	m, err := manifest.Parse(raw)
	require.Nil(t, err)
	require.Len(t, m.Components, 1)
	require.True(t, m.Components[0].CreateDestination)
}

func TestParseRejectsNonArrayComponents(t *testing.T) {
	raw := []byte(`{"components": {"name": "app"}}`)
	_, err := manifest.Parse(raw)
	require.NotNil(t, err)
}

func TestParseSlotSections(t *testing.T) {
	raw := []byte(`{
		"hw_compatibility": "board-v2",
		"slot-a": {"components": [{"name": "app", "type": "raw", "filename": "app.img", "install_to": "/dev/mmcblk0p2"}]},
		"slot-b": {"components": []}
	}`)

	m, err := manifest.Parse(raw)
	require.Nil(t, err)
	require.Len(t, m.SlotComponents, 2)
	require.Len(t, m.SlotComponents["slot-a"], 1)
}

func TestParseRejectsEmptyManifest(t *testing.T) {
	_, err := manifest.Parse([]byte(`{"version": "1.0"}`))
	require.NotNil(t, err)
}

func TestParseRejectsMissingRequiredFields(t *testing.T) {
	raw := []byte(`{"components": [{"type": "file"}]}`)
	_, err := manifest.Parse(raw)
	require.NotNil(t, err)
}

func TestSelectFailsOnEmptyDeviceFields(t *testing.T) {
	raw := []byte(`{"hw_compatibility": "board-v2", "slot-a": {"components": []}}`)
	m, err := manifest.Parse(raw)
	require.Nil(t, err)

	_, serr := manifest.Select(m, manifest.DeviceConfig{CurrentSlot: "", HwCompatibility: "board-v2"})
	require.NotNil(t, serr)

	_, serr = manifest.Select(m, manifest.DeviceConfig{CurrentSlot: "a", HwCompatibility: ""})
	require.NotNil(t, serr)
}

func TestSelectFailsOnMissingSlotKey(t *testing.T) {
	raw := []byte(`{"hw_compatibility": "board-v2", "slot-a": {"components": []}}`)
	m, err := manifest.Parse(raw)
	require.Nil(t, err)

	_, serr := manifest.Select(m, manifest.DeviceConfig{CurrentSlot: "b", HwCompatibility: "board-v2"})
	require.NotNil(t, serr)
}

func TestSelectFailsOnHwMismatch(t *testing.T) {
	raw := []byte(`{"hw_compatibility": "board-v2", "slot-a": {"components": []}}`)
	m, err := manifest.Parse(raw)
	require.Nil(t, err)

	_, serr := manifest.Select(m, manifest.DeviceConfig{CurrentSlot: "a", HwCompatibility: "board-v3"})
	require.NotNil(t, serr)
}

func TestSelectSucceeds(t *testing.T) {
	raw := []byte(`{"hw_compatibility": "board-v2", "slot-a": {"components": [{"name": "app", "type": "file", "filename": "app.bin", "path": "/opt/app"}]}}`)
	m, err := manifest.Parse(raw)
	require.Nil(t, err)

	sel, serr := manifest.Select(m, manifest.DeviceConfig{CurrentSlot: "a", HwCompatibility: "board-v2"})
	require.Nil(t, serr)
	require.Len(t, sel.Components, 1)
	require.Equal(t, "app", sel.Components[0].Name)
}

func TestSelectAcceptsPrefixedSlotId(t *testing.T) {
	raw := []byte(`{"hw_compatibility": "board-z", "slot-b": {"components": [{"name": "app", "type": "file", "filename": "app.bin", "path": "/opt/app"}]}}`)
	m, err := manifest.Parse(raw)
	require.Nil(t, err)

	sel, serr := manifest.Select(m, manifest.DeviceConfig{CurrentSlot: "slot-b", HwCompatibility: "board-z"})
	require.Nil(t, serr)
	require.Len(t, sel.Components, 1)
}

func TestCompareVersions(t *testing.T) {
	require.Equal(t, 0, manifest.CompareVersions("1.2.3", "1.2.3"))
	require.Equal(t, 1, manifest.CompareVersions("1.3", "1.2.9"))
	require.Equal(t, -1, manifest.CompareVersions("1.2", "1.2.1"))
	require.Equal(t, 0, manifest.CompareVersions("1.2.0", "1.2"))
	require.Equal(t, 0, manifest.CompareVersions("1.x", "1.0"))
}

func TestShouldUpdate(t *testing.T) {
	m := &manifest.Manifest{ForceAll: false}
	c := manifest.Component{Version: "1.1.0", Force: false}
	require.True(t, manifest.ShouldUpdate(c, m, "1.0.0"))
	require.False(t, manifest.ShouldUpdate(c, m, "1.1.0"))

	forced := manifest.Component{Version: "1.0.0", Force: true}
	require.True(t, manifest.ShouldUpdate(forced, m, "1.5.0"))

	mAll := &manifest.Manifest{ForceAll: true}
	require.True(t, manifest.ShouldUpdate(c, mAll, "9.9.9"))
}
