package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"linecat/internal/pkg/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func nextN(t *testing.T, s Source, n int) []string {
	t.Helper()
	out := make([]string, n)
	for i := range out {
		line, err := s.Next()
		require.NoError(t, err)
		out[i] = line
	}
	return out
}

func TestFileSourceCyclesAndWraps(t *testing.T) {
	s, err := Open(writeFile(t, "one\ntwo\nthree\n"))
	require.NoError(t, err)
	require.Len(t, s.lines, 3)
	got := nextN(t, s, 7)
	assert.Equal(t, []string{"one", "two", "three", "one", "two", "three", "one"}, got)
	assert.Equal(t, 1, s.cursor)
}

func TestFileSourceWithoutTrailingNewline(t *testing.T) {
	s, err := Open(writeFile(t, "foo\r\nbar"))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "foo"}, nextN(t, s, 3))
}

func TestFileSourceEmptyFile(t *testing.T) {
	s, err := Open(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, nextN(t, s, 2))
}

func TestFileSourcePicksUpChangesOnWrap(t *testing.T) {
	path := writeFile(t, "foo\nbar\n")
	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, nextN(t, s, 1))

	require.NoError(t, os.WriteFile(path, []byte("baz\n"), 0o600))
	// the current cycle still comes from the snapshot
	assert.Equal(t, []string{"bar"}, nextN(t, s, 1))
	assert.Equal(t, []string{"baz", "baz"}, nextN(t, s, 2))
}

func TestFileSourceKeepsSnapshotWhenFileDisappears(t *testing.T) {
	path := writeFile(t, "foo\nbar\n")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))
	assert.Equal(t, []string{"foo", "bar", "foo", "bar"}, nextN(t, s, 4))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, protocol.FileUnavailable, protocol.KindOf(err))
}

func TestOpenRejectsLongLines(t *testing.T) {
	_, err := Open(writeFile(t, "ok\n"+strings.Repeat("x", protocol.MaxLineLength+1)+"\n"))
	require.Error(t, err)
	assert.Equal(t, protocol.FileUnavailable, protocol.KindOf(err))
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestFileSourceKeepsNonASCIILines(t *testing.T) {
	long := strings.Repeat("\xe9", 400)
	s, err := Open(writeFile(t, "caf\xe9\n"+long+"\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"caf\xe9", long, "caf\xe9"}, nextN(t, s, 3))
}
