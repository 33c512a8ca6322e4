package fat32

import (
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrSeekFile is returned when a seek lands outside the file.
var ErrSeekFile = errors.New("could not seek inside of the file")

// File is an open handle on one root-directory entry (or on the root
// directory itself). Reads on a read-only handle stream sector by sector
// through the volume; a writable handle buffers the whole content in
// memory and commits it as one WriteFile on Sync or Close, because
// whole-file replacement is the only write primitive the on-disk layout
// offers.
type File struct {
	vol    *Volume
	name   string
	isRoot bool
	entry  Entry

	offset   int64
	writable bool
	dirty    bool
	buf      []byte
	closed   bool
}

var _ afero.File = (*File)(nil)

func (f *File) Close() error {
	if f.closed {
		return afero.ErrFileClosed
	}
	err := f.Sync()
	f.closed = true
	f.buf = nil
	return err
}

func (f *File) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, afero.ErrFileClosed
	}
	if f.isRoot {
		return 0, syscall.EISDIR
	}
	if len(p) == 0 {
		return 0, nil
	}

	if f.writable {
		// A writable handle reads its own buffered view.
		if off >= int64(len(f.buf)) {
			return 0, io.EOF
		}
		n := copy(p, f.buf[off:])
		if n < len(p) {
			return n, io.EOF
		}
		return n, nil
	}

	data, err := f.vol.readFileAt(f.entry.StartCluster(), int64(f.entry.FileSize), off, int64(len(p)))
	copy(p, data)
	return len(data), err
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, afero.ErrFileClosed
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.size() + offset
	default:
		return 0, errors.Wrapf(ErrSeekFile, "invalid whence %d", whence)
	}

	if offset < 0 || offset > f.size() {
		return 0, errors.Wrapf(afero.ErrOutOfRange, "offset %d", offset)
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (int, error) {
	n, err := f.WriteAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, afero.ErrFileClosed
	}
	if !f.writable {
		return 0, syscall.EPERM
	}

	if need := off + int64(len(p)); need > int64(len(f.buf)) {
		grown := make([]byte, need)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[off:], p)
	f.dirty = true
	return len(p), nil
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *File) Truncate(size int64) error {
	if f.closed {
		return afero.ErrFileClosed
	}
	if !f.writable {
		return syscall.EPERM
	}

	if size <= int64(len(f.buf)) {
		f.buf = f.buf[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, f.buf)
		f.buf = grown
	}
	f.dirty = true
	return nil
}

// Sync commits the buffered content to the volume as one atomic
// whole-file write.
func (f *File) Sync() error {
	if !f.dirty {
		return nil
	}
	if _, err := f.vol.WriteFile(f.name, f.buf); err != nil {
		return err
	}
	f.dirty = false

	entry, err := f.vol.Stat(f.name)
	if err != nil {
		return err
	}
	f.entry = entry
	return nil
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Stat() (os.FileInfo, error) {
	if f.isRoot {
		return rootFileInfo{}, nil
	}
	if f.writable && f.dirty {
		pending := f.entry
		pending.FileSize = uint32(len(f.buf))
		return pending.FileInfo(), nil
	}
	return f.entry.FileInfo(), nil
}

// Readdir lists the root directory. The handle's offset doubles as the
// listing position, matching os.File semantics across repeated calls.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if f.closed {
		return nil, afero.ErrFileClosed
	}
	if !f.isRoot {
		return nil, syscall.ENOTDIR
	}

	entries, err := f.vol.ListFiles(0)
	if err != nil {
		return nil, err
	}

	if f.offset >= int64(len(entries)) {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}
	entries = entries[f.offset:]

	if count > 0 && count < len(entries) {
		entries = entries[:count]
	}
	f.offset += int64(len(entries))

	infos := make([]os.FileInfo, len(entries))
	for i := range entries {
		infos[i] = entries[i].FileInfo()
	}
	return infos, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	infos, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

// size is the current logical size: the buffered length on a writable
// handle, the directory-entry size otherwise.
func (f *File) size() int64 {
	if f.writable {
		return int64(len(f.buf))
	}
	return int64(f.entry.FileSize)
}
