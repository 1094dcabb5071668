package update_test

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/anhhao17/ota-updater/install"
	"github.com/anhhao17/ota-updater/manifest"
	"github.com/anhhao17/ota-updater/stream"
	"github.com/anhhao17/ota-updater/update"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestDispatchSelectsRawStrategy(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "p")

	mod := update.New(nil)
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeRaw, Filename: "image.bin", InstallTo: target}

	_, err := mod.Dispatch(stream.FromReader(bytes.NewReader([]byte("hello"))), comp, install.Options{})
	require.Nil(t, err)

	got, rerr := os.ReadFile(target)
	require.NoError(t, rerr)
	require.Equal(t, "hello", string(got))
}

func TestDispatchDecompressesGzipFilename(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "p")

	mod := update.New(nil)
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeRaw, Filename: "image.gz", InstallTo: target}

	gz := gzipBytes(t, "hello")
	_, err := mod.Dispatch(stream.FromReader(bytes.NewReader(gz)), comp, install.Options{})
	require.Nil(t, err)

	got, rerr := os.ReadFile(target)
	require.NoError(t, rerr)
	require.Equal(t, "hello", string(got))
}

func TestDispatchRejectsNilSource(t *testing.T) {
	mod := update.New(nil)
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeRaw, Filename: "image.bin"}
	_, err := mod.Dispatch(nil, comp, install.Options{})
	require.NotNil(t, err)
}

func TestDispatchRejectsUnknownType(t *testing.T) {
	mod := update.New([]install.Strategy{install.Raw{}})
	comp := manifest.Component{Name: "rootfs", Type: manifest.TypeFile, Filename: "f.bin", Path: "/tmp/x"}
	_, err := mod.Dispatch(stream.FromReader(bytes.NewReader(nil)), comp, install.Options{})
	require.NotNil(t, err)
}
