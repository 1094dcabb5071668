package archivepath_test

import (
	"testing"

	"github.com/anhhao17/ota-updater/archivepath"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStripsLeadingDotSlashAndSlashes(t *testing.T) {
	require.Equal(t, "a/b", archivepath.Normalize("./a/b"))
	require.Equal(t, "a/b", archivepath.Normalize("./././a/b"))
	require.Equal(t, "a/b", archivepath.Normalize("///a/b"))
	require.Equal(t, "a/b", archivepath.Normalize("a//b"))
	require.Equal(t, "a/b", archivepath.Normalize("a///b"))
}

func TestNormalizeEntryPathRejectsEmpty(t *testing.T) {
	_, err := archivepath.NormalizeEntryPath(".")
	require.NotNil(t, err)
}

func TestNormalizeEntryPathRejectsAbsolute(t *testing.T) {
	_, err := archivepath.NormalizeEntryPath("/etc/passwd")
	require.NotNil(t, err)
}

func TestNormalizeEntryPathRejectsBackslash(t *testing.T) {
	_, err := archivepath.NormalizeEntryPath(`a\b`)
	require.NotNil(t, err)
}

func TestNormalizeEntryPathRejectsDotDotSegment(t *testing.T) {
	_, err := archivepath.NormalizeEntryPath("a/../../etc/passwd")
	require.NotNil(t, err)
}

func TestNormalizeEntryPathAcceptsOrdinary(t *testing.T) {
	got, err := archivepath.NormalizeEntryPath("./usr/bin/app")
	require.Nil(t, err)
	require.Equal(t, "usr/bin/app", got)
}

func TestUnsafePathErrorNamesArchivePolicy(t *testing.T) {
	_, err := archivepath.NormalizeEntryPath("../escape.txt")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "Unsafe path in archive")
}

func TestNormalizeLinkTargetAllowsEmpty(t *testing.T) {
	got, err := archivepath.NormalizeLinkTarget("")
	require.Nil(t, err)
	require.Equal(t, "", got)
}

func TestNormalizeLinkTargetRejectsUnsafe(t *testing.T) {
	_, err := archivepath.NormalizeLinkTarget("../../etc/shadow")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "Unsafe hardlink target")
}
