package hashutil_test

import (
	"os"
	"strings"
	"testing"

	"github.com/anhhao17/ota-updater/hashutil"
	"github.com/stretchr/testify/require"
)

func TestHasherIncrementalMatchesSumBytes(t *testing.T) {
	h := hashutil.New()
	h.Update([]byte("hello, "))
	h.Update([]byte("world"))

	require.Equal(t, hashutil.SumBytes([]byte("hello, world")), h.FinalHex())
}

func TestHasherFinalHexOnlyOnce(t *testing.T) {
	h := hashutil.New()
	h.Update([]byte("x"))

	first := h.FinalHex()
	require.NotEmpty(t, first)

	require.Equal(t, "", h.FinalHex())

	h.Update([]byte("more"))
	require.Equal(t, "", h.FinalHex())
}

func TestSumReaderMatchesSumBytes(t *testing.T) {
	payload := []byte("the quick brown fox")

	got, err := hashutil.SumReader(strings.NewReader(string(payload)))
	require.NoError(t, err)
	require.Equal(t, hashutil.SumBytes(payload), got)
}

func TestSumFileMatchesSumBytes(t *testing.T) {
	payload := []byte("file contents for digesting")

	f, err := os.CreateTemp(t.TempDir(), "hashutil-*")
	require.NoError(t, err)
	_, err = f.Write(payload)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := hashutil.SumFile(f.Name())
	require.NoError(t, err)
	require.Equal(t, hashutil.SumBytes(payload), got)
}

func TestDigestIsLowercaseAndFixedLength(t *testing.T) {
	sum := hashutil.SumBytes([]byte("anything"))

	require.Len(t, sum, 64)
	require.Equal(t, strings.ToLower(sum), sum)
}

func TestEqualHexIsCaseInsensitive(t *testing.T) {
	sum := hashutil.SumBytes([]byte("case fold me"))

	require.True(t, hashutil.EqualHex(sum, strings.ToUpper(sum)))
	require.True(t, hashutil.EqualHex(strings.ToUpper(sum), sum))
	require.False(t, hashutil.EqualHex(sum, hashutil.SumBytes([]byte("different"))))
}
