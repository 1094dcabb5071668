package stage_test

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/anhhao17/ota-updater/hashutil"
	"github.com/anhhao17/ota-updater/stage"
	"github.com/stretchr/testify/require"
)

func TestVerifySucceedsOnMatchingDigest(t *testing.T) {
	payload := "the quick brown fox jumps over the lazy dog"
	expected := hashutil.SumBytes([]byte(payload))

	staged, err := stage.Verify(strings.NewReader(payload), expected)
	require.Nil(t, err)
	defer staged.Close()

	got, rerr := io.ReadAll(staged.Reader())
	require.NoError(t, rerr)
	require.Equal(t, payload, string(got))
}

func TestVerifyIsCaseInsensitive(t *testing.T) {
	payload := "case insensitive digest check"
	expected := strings.ToUpper(hashutil.SumBytes([]byte(payload)))

	staged, err := stage.Verify(strings.NewReader(payload), expected)
	require.Nil(t, err)
	defer staged.Close()
}

func TestVerifyFailsOnMismatch(t *testing.T) {
	_, err := stage.Verify(strings.NewReader("actual content"), hashutil.SumBytes([]byte("different content")))
	require.NotNil(t, err)
}

func TestVerifyRejectsEmptyExpected(t *testing.T) {
	_, err := stage.Verify(strings.NewReader("anything"), "")
	require.NotNil(t, err)
}

func TestCloseUnlinksTempFile(t *testing.T) {
	payload := "temp file should vanish after close"
	expected := hashutil.SumBytes([]byte(payload))

	staged, err := stage.Verify(strings.NewReader(payload), expected)
	require.Nil(t, err)

	path := staged.Reader().Name()
	require.NoError(t, staged.Close())

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
