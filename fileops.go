package fat32

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// The five file operations. Each one is a single synchronous transaction
// against the volume, serialized by the Volume mutex.

// Stat looks the name up in the root directory.
func (v *Volume) Stat(name string) (Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return Entry{}, ErrNotMounted
	}
	e, _, err := v.findEntry(v.info.RootCluster, encodeName(name))
	return e, err
}

// ReadFile copies the file's content into buf and returns the number of
// bytes copied, which is the smaller of the file size and len(buf).
func (v *Volume) ReadFile(name string, buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return 0, ErrNotMounted
	}

	e, _, err := v.findEntry(v.info.RootCluster, encodeName(name))
	if err != nil {
		return 0, err
	}

	want := len(buf)
	if int64(want) > int64(e.FileSize) {
		want = int(e.FileSize)
	}
	return v.readChain(e.StartCluster(), 0, buf[:want])
}

// readFileAt reads readSize bytes starting at offset from the chain at
// start. It returns io.EOF alongside the data when the request runs past
// fileSize.
func (v *Volume) readFileAt(start uint32, fileSize, offset, readSize int64) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return nil, ErrNotMounted
	}
	if offset >= fileSize {
		return nil, io.EOF
	}

	short := false
	if offset+readSize > fileSize {
		readSize = fileSize - offset
		short = true
	}

	buf := make([]byte, readSize)
	n, err := v.readChain(start, offset, buf)
	if err != nil {
		return buf[:n], err
	}
	if short {
		return buf[:n], io.EOF
	}
	return buf[:n], nil
}

// readChain copies len(dst) bytes starting at byte offset off of the
// chain rooted at start. Data moves through the one-sector scratch
// buffer; chain bookkeeping is pure index arithmetic.
func (v *Volume) readChain(start uint32, off int64, dst []byte) (int, error) {
	clusterBytes := int64(v.info.SectorsPerCluster) * int64(v.info.BytesPerSector)

	n := 0
	pos := int64(0) // byte offset of the current cluster within the file
	cluster := start

	for isDataCluster(cluster) && n < len(dst) {
		if off < pos+clusterBytes {
			base := v.clusterToSector(cluster)
			for sec := uint32(0); sec < uint32(v.info.SectorsPerCluster) && n < len(dst); sec++ {
				secStart := pos + int64(sec)*SectorSize
				if off >= secStart+SectorSize {
					continue
				}
				if err := v.dev.ReadSector(v.drive, base+sec, &v.sector); err != nil {
					return n, errors.Wrap(err, "file data")
				}
				from := int64(0)
				if off > secStart {
					from = off - secStart
				}
				n += copy(dst[n:], v.sector[from:])
			}
		}
		pos += clusterBytes

		next, err := v.readEntry(cluster)
		if err != nil {
			return n, err
		}
		if !next.IsNextCluster() {
			break
		}
		cluster = next.Value()
	}
	return n, nil
}

// WriteFile replaces the content of an existing file with data. It never
// creates an entry; the name must already exist.
//
// A fresh chain is allocated and fully written before the directory entry
// is touched, and the old chain is freed only afterwards. An interruption
// before the entry update leaves the previous content intact and
// readable; only the final free-old step can leak clusters, never corrupt
// data. Running out of clusters mid-allocation frees the partial new
// chain and returns ErrNoSpace with the entry unchanged.
func (v *Volume) WriteFile(name string, data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return 0, ErrNotMounted
	}

	old, loc, err := v.findEntry(v.info.RootCluster, encodeName(name))
	if err != nil {
		return 0, err
	}

	first := uint32(0)
	if len(data) > 0 {
		first, err = v.writeFreshChain(data)
		if err != nil {
			return 0, err
		}
	}

	if err := v.updateEntry(loc, first, uint32(len(data))); err != nil {
		// The fresh chain is not referenced by anything; release it.
		if isDataCluster(first) {
			_ = v.freeChain(first)
		}
		return 0, err
	}

	if isDataCluster(old.StartCluster()) {
		if err := v.freeChain(old.StartCluster()); err != nil {
			// The entry already points at the new chain; the old one is
			// leaked, not corrupt.
			return len(data), err
		}
	}
	return len(data), nil
}

// writeFreshChain allocates a new cluster chain sized for data, writes
// the payload into it zero-padding the tail of the last sector, and
// returns the first cluster. On any failure the partial chain is freed.
func (v *Volume) writeFreshChain(data []byte) (uint32, error) {
	first, err := v.allocCluster()
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"bytes":        len(data),
		"firstCluster": first,
	}).Debug("allocating fresh cluster chain")

	written := 0
	cluster := first
	for {
		base := v.clusterToSector(cluster)
		for sec := uint32(0); sec < uint32(v.info.SectorsPerCluster) && written < len(data); sec++ {
			n := copy(v.sector[:], data[written:])
			for i := n; i < SectorSize; i++ {
				v.sector[i] = 0
			}
			if err := v.dev.WriteSector(v.drive, base+sec, &v.sector); err != nil {
				_ = v.freeChain(first)
				return 0, errors.Wrap(err, "file data")
			}
			written += n
		}

		if written >= len(data) {
			// allocCluster already marked this cluster end-of-chain.
			return first, nil
		}

		next, err := v.allocCluster()
		if err != nil {
			_ = v.freeChain(first)
			return 0, err
		}
		if err := v.writeEntry(cluster, next); err != nil {
			_ = v.freeChain(first)
			_ = v.freeChain(next)
			return 0, err
		}
		cluster = next
	}
}

// CreateFile adds a zero-length entry for name to the root directory.
func (v *Volume) CreateFile(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return ErrNotMounted
	}

	n83 := encodeName(name)
	if _, _, err := v.findEntry(v.info.RootCluster, n83); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err := v.createEntry(v.info.RootCluster, n83)
	return err
}

// DeleteFile frees the file's cluster chain and marks its directory slot
// deleted.
func (v *Volume) DeleteFile(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return ErrNotMounted
	}

	e, loc, err := v.findEntry(v.info.RootCluster, encodeName(name))
	if err != nil {
		return err
	}

	if isDataCluster(e.StartCluster()) {
		if err := v.freeChain(e.StartCluster()); err != nil {
			return err
		}
	}
	return v.deleteEntry(loc)
}

// ListFiles returns up to limit live file entries from the root
// directory; limit <= 0 returns all of them. Volume labels and
// subdirectory entries are excluded.
func (v *Volume) ListFiles(limit int) ([]Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return nil, ErrNotMounted
	}
	return v.listEntries(v.info.RootCluster, limit)
}
