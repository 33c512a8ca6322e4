package fat32

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFs(t *testing.T) *Fs {
	t.Helper()

	fs, err := New(newTestFile(t, buildImage(t, defaultGeometry())))
	require.NoError(t, err)
	return fs
}

func TestFsName(t *testing.T) {
	assert.Equal(t, "FAT32", newTestFs(t).Name())
}

func TestFsWriteReadRoundTrip(t *testing.T) {
	fs := newTestFs(t)

	payload := pattern(3*SectorSize + 7)
	require.NoError(t, afero.WriteFile(fs, "data.bin", payload, 0644))

	got, err := afero.ReadFile(fs, "DATA.BIN")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Lookup is case insensitive both ways.
	got, err = afero.ReadFile(fs, "/data.bin")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFsOpenFileAppend(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "log.txt", []byte("one\n"), 0644))

	f, err := fs.OpenFile("log.txt", os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.WriteString("two\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := afero.ReadFile(fs, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(got))
}

func TestFsOpenFileExclusive(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "a.txt", []byte("x"), 0644))

	_, err := fs.OpenFile("a.txt", os.O_RDWR|os.O_CREATE|os.O_EXCL, 0)
	assert.Equal(t, afero.ErrFileExists, err)
}

func TestFsCreateTruncatesExisting(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "a.txt", []byte("long old content"), 0644))

	f, err := fs.Create("a.txt")
	require.NoError(t, err)
	_, err = f.WriteString("new")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := afero.ReadFile(fs, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFsOpenMissing(t *testing.T) {
	fs := newTestFs(t)

	_, err := fs.Open("ghost.txt")
	assert.Equal(t, ErrNotFound, err)

	_, err = fs.Stat("ghost.txt")
	assert.Equal(t, ErrNotFound, err)
}

func TestFsRejectsSubdirectoryPaths(t *testing.T) {
	fs := newTestFs(t)

	_, err := fs.Open("dir/a.txt")
	assert.Equal(t, ErrNotSupported, err)
}

func TestFsRootHandle(t *testing.T) {
	fs := newTestFs(t)

	for _, name := range []string{"/", "", "."} {
		info, err := fs.Stat(name)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	_, err := fs.OpenFile("/", os.O_WRONLY, 0)
	assert.Equal(t, syscall.EISDIR, err)

	assert.Equal(t, syscall.EISDIR, fs.Remove("/"))
}

func TestFsRemove(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "a.txt", []byte("x"), 0644))

	require.NoError(t, fs.Remove("a.txt"))
	_, err := fs.Open("a.txt")
	assert.Equal(t, ErrNotFound, err)

	assert.Equal(t, ErrNotFound, fs.Remove("a.txt"))

	// RemoveAll tolerates a missing target.
	assert.NoError(t, fs.RemoveAll("a.txt"))
}

func TestFsReaddirRoot(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "a.txt", []byte("aa"), 0644))
	require.NoError(t, afero.WriteFile(fs, "b.txt", []byte("bbb"), 0644))

	root, err := fs.Open("/")
	require.NoError(t, err)
	infos, err := root.Readdir(0)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "A.TXT", infos[0].Name())
	assert.Equal(t, int64(2), infos[0].Size())
	assert.Equal(t, "B.TXT", infos[1].Name())
	assert.Equal(t, int64(3), infos[1].Size())
}

func TestFsUnsupportedOperations(t *testing.T) {
	fs := newTestFs(t)

	assert.Equal(t, ErrNotSupported, fs.Mkdir("d", 0755))
	assert.Equal(t, ErrNotSupported, fs.MkdirAll("d/e", 0755))
	assert.Equal(t, ErrNotSupported, fs.Rename("a", "b"))
	assert.Equal(t, ErrNotSupported, fs.Chmod("a", 0644))
	assert.Equal(t, ErrNotSupported, fs.Chown("a", 0, 0))
	assert.Equal(t, ErrNotSupported, fs.Chtimes("a", time.Now(), time.Now()))
}
