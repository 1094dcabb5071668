package stream_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/anhhao17/ota-updater/stream"
	"github.com/stretchr/testify/require"
)

func TestCountingReaderAccumulates(t *testing.T) {
	src := stream.FromReader(bytes.NewReader(bytes.Repeat([]byte("a"), 100)))
	cr := stream.NewCountingReader(src)

	buf := make([]byte, 30)
	total := 0
	for {
		n, err := cr.Read(buf)
		total += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.Equal(t, int64(100), cr.BytesIn())
	require.Equal(t, 100, total)
}

func gzipBytes(t *testing.T, plain []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	_, err := w.Write(plain)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return b.Bytes()
}

func TestGzipReaderRoundTrip(t *testing.T) {
	payload := gzipBytes(t, []byte("hello"))

	gz, gerr := stream.NewGzipReader(bytes.NewReader(payload))
	require.Nil(t, gerr)

	out, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))
}

func TestGzipReaderBadMagic(t *testing.T) {
	_, gerr := stream.NewGzipReader(bytes.NewReader([]byte("not-gzip-data")))
	require.NotNil(t, gerr)
}

func TestGzipReaderTruncated(t *testing.T) {
	payload := gzipBytes(t, bytes.Repeat([]byte("x"), 10000))
	truncated := payload[:len(payload)-5]

	gz, gerr := stream.NewGzipReader(bytes.NewReader(truncated))
	require.Nil(t, gerr)

	_, err := io.ReadAll(gz)
	require.Error(t, err)
}
