package fat32

import (
	"io"

	"github.com/pkg/errors"
)

// SectorSize is the block size of the device contract. All transfers
// between the volume and its device happen in whole 512-byte sectors.
const SectorSize = 512

// BlockDevice is the external collaborator providing raw sector access.
// Implementations must not retry on failure; retry policy, if any, lives
// below this interface.
type BlockDevice interface {
	// ReadSector fills buf with the sector at the given LBA.
	ReadSector(drive uint16, lba uint32, buf *[SectorSize]byte) error
	// WriteSector writes buf to the sector at the given LBA.
	WriteSector(drive uint16, lba uint32, buf *[SectorSize]byte) error
}

// FileDisk adapts any seekable file (an *os.File, an afero.File, ...) to
// the BlockDevice contract. The drive number is meaningless for a single
// backing file and is ignored.
type FileDisk struct {
	rws io.ReadWriteSeeker
}

// NewFileDisk returns a BlockDevice backed by rws, which is expected to
// hold a raw volume image starting at offset 0.
func NewFileDisk(rws io.ReadWriteSeeker) *FileDisk {
	return &FileDisk{rws: rws}
}

func (d *FileDisk) ReadSector(_ uint16, lba uint32, buf *[SectorSize]byte) error {
	if _, err := d.rws.Seek(int64(lba)*SectorSize, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to sector %d", lba)
	}
	if _, err := io.ReadFull(d.rws, buf[:]); err != nil {
		return errors.Wrapf(err, "read sector %d", lba)
	}
	return nil
}

func (d *FileDisk) WriteSector(_ uint16, lba uint32, buf *[SectorSize]byte) error {
	if _, err := d.rws.Seek(int64(lba)*SectorSize, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to sector %d", lba)
	}
	if _, err := d.rws.Write(buf[:]); err != nil {
		return errors.Wrapf(err, "write sector %d", lba)
	}
	return nil
}
