package fat32

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

// Fs exposes a mounted Volume as an afero.Fs. Only the root directory
// exists; operations that would need subdirectories or metadata mutation
// return ErrNotSupported.
type Fs struct {
	vol *Volume
}

var _ afero.Fs = (*Fs)(nil)

// New opens the FAT32 volume image in rws and wraps it as an afero
// filesystem.
func New(rws io.ReadWriteSeeker) (*Fs, error) {
	vol, err := Mount(NewFileDisk(rws), 0)
	if err != nil {
		return nil, err
	}
	return &Fs{vol: vol}, nil
}

// NewFromVolume wraps an already mounted Volume.
func NewFromVolume(vol *Volume) *Fs {
	return &Fs{vol: vol}
}

// Volume returns the underlying mounted volume.
func (f *Fs) Volume() *Volume {
	return f.vol
}

func (f *Fs) Name() string {
	return "FAT32"
}

// normalize strips the leading slash afero.Walk and friends produce.
// An empty result addresses the root directory.
func normalize(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || name == "." {
		return "", true
	}
	return name, false
}

func (f *Fs) Create(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0)
}

func (f *Fs) Open(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDONLY, 0)
}

func (f *Fs) OpenFile(name string, flag int, _ os.FileMode) (afero.File, error) {
	name, isRoot := normalize(name)
	if isRoot {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, syscall.EISDIR
		}
		return &File{vol: f.vol, name: "/", isRoot: true}, nil
	}
	if strings.Contains(name, "/") {
		return nil, ErrNotSupported
	}

	entry, err := f.vol.Stat(name)
	switch {
	case err == nil:
		if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
			return nil, afero.ErrFileExists
		}
	case err == ErrNotFound && flag&os.O_CREATE != 0:
		if err := f.vol.CreateFile(name); err != nil {
			return nil, err
		}
		if entry, err = f.vol.Stat(name); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	file := &File{
		vol:      f.vol,
		name:     entry.Name(),
		entry:    entry,
		writable: flag&(os.O_WRONLY|os.O_RDWR) != 0,
	}

	if file.writable {
		if flag&os.O_TRUNC != 0 {
			file.dirty = entry.FileSize != 0
		} else if entry.FileSize > 0 {
			file.buf = make([]byte, entry.FileSize)
			if _, err := f.vol.ReadFile(name, file.buf); err != nil {
				return nil, err
			}
		}
		if flag&os.O_APPEND != 0 {
			file.offset = int64(len(file.buf))
		}
	}
	return file, nil
}

func (f *Fs) Remove(name string) error {
	name, isRoot := normalize(name)
	if isRoot {
		return syscall.EISDIR
	}
	return f.vol.DeleteFile(name)
}

func (f *Fs) RemoveAll(path string) error {
	err := f.Remove(path)
	if err == ErrNotFound {
		return nil
	}
	return err
}

func (f *Fs) Rename(_, _ string) error {
	return ErrNotSupported
}

func (f *Fs) Stat(name string) (os.FileInfo, error) {
	name, isRoot := normalize(name)
	if isRoot {
		return rootFileInfo{}, nil
	}
	entry, err := f.vol.Stat(name)
	if err != nil {
		return nil, err
	}
	return entry.FileInfo(), nil
}

func (f *Fs) Mkdir(_ string, _ os.FileMode) error {
	return ErrNotSupported
}

func (f *Fs) MkdirAll(_ string, _ os.FileMode) error {
	return ErrNotSupported
}

func (f *Fs) Chmod(_ string, _ os.FileMode) error {
	return ErrNotSupported
}

func (f *Fs) Chown(_ string, _, _ int) error {
	return ErrNotSupported
}

func (f *Fs) Chtimes(_ string, _, _ time.Time) error {
	return ErrNotSupported
}
