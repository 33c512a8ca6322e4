package fat32

import (
	"bytes"
	"encoding/binary"

	"github.com/go-restruct/restruct"
	"github.com/pkg/errors"
)

// Root directory entry management. The root directory is an ordinary
// cluster chain under FAT32; its capacity is fixed at mount time because
// the chain is never extended when full.
//
// A slot whose first byte is 0x00 terminates scanning of the whole chain,
// not just its sector. Live entries written after such a hole are
// unreachable. Known limitation of this scan, kept deliberately.

// Entry is one live root-directory entry.
type Entry struct {
	EntryHeader
}

// StartCluster joins the split cluster fields into the index of the first
// cluster of the entry's chain.
func (e Entry) StartCluster() uint32 {
	return uint32(e.FirstClusterHI)<<16 | uint32(e.FirstClusterLO)
}

// entryLocation identifies the directory slot an entry was found in, so
// it can be rewritten or marked deleted later without rescanning.
type entryLocation struct {
	lba    uint32
	offset uint32
}

// findEntry walks the directory chain starting at dirStart looking for
// the exact 11-byte name. Volume labels are skipped; everything else,
// including subdirectory entries, participates in the match.
func (v *Volume) findEntry(dirStart uint32, name [11]byte) (Entry, entryLocation, error) {
	cluster := dirStart
	for isDataCluster(cluster) {
		base := v.clusterToSector(cluster)

		for sec := uint32(0); sec < uint32(v.info.SectorsPerCluster); sec++ {
			if err := v.dev.ReadSector(v.drive, base+sec, &v.sector); err != nil {
				return Entry{}, entryLocation{}, errors.Wrap(err, "directory")
			}

			for off := uint32(0); off < SectorSize; off += dirEntrySize {
				switch v.sector[off] {
				case slotEndOfDir:
					return Entry{}, entryLocation{}, ErrNotFound
				case slotDeleted:
					continue
				}
				if v.sector[off+11]&AttrVolumeLabel != 0 {
					continue
				}
				if !bytes.Equal(v.sector[off:off+11], name[:]) {
					continue
				}

				var e Entry
				if err := restruct.Unpack(v.sector[off:off+dirEntrySize], binary.LittleEndian, &e.EntryHeader); err != nil {
					return Entry{}, entryLocation{}, errors.Wrap(err, "unpack directory entry")
				}
				return e, entryLocation{lba: base + sec, offset: off}, nil
			}
		}

		next, err := v.readEntry(cluster)
		if err != nil {
			return Entry{}, entryLocation{}, err
		}
		if !next.IsNextCluster() {
			break
		}
		cluster = next.Value()
	}
	return Entry{}, entryLocation{}, ErrNotFound
}

// createEntry claims the first terminating or deleted slot in the chain
// and writes a fresh archive entry with the given name, zero size and no
// cluster chain. The chain is not extended when every slot is live.
func (v *Volume) createEntry(dirStart uint32, name [11]byte) (entryLocation, error) {
	cluster := dirStart
	for isDataCluster(cluster) {
		base := v.clusterToSector(cluster)

		for sec := uint32(0); sec < uint32(v.info.SectorsPerCluster); sec++ {
			if err := v.dev.ReadSector(v.drive, base+sec, &v.sector); err != nil {
				return entryLocation{}, errors.Wrap(err, "directory")
			}

			for off := uint32(0); off < SectorSize; off += dirEntrySize {
				if v.sector[off] != slotEndOfDir && v.sector[off] != slotDeleted {
					continue
				}

				copy(v.sector[off:off+11], name[:])
				v.sector[off+11] = AttrArchive
				for i := off + 12; i < off+dirEntrySize; i++ {
					v.sector[i] = 0
				}
				if err := v.dev.WriteSector(v.drive, base+sec, &v.sector); err != nil {
					return entryLocation{}, errors.Wrap(err, "directory")
				}
				return entryLocation{lba: base + sec, offset: off}, nil
			}
		}

		next, err := v.readEntry(cluster)
		if err != nil {
			return entryLocation{}, err
		}
		if !next.IsNextCluster() {
			break
		}
		cluster = next.Value()
	}
	return entryLocation{}, ErrNoSpace
}

// deleteEntry marks the slot deleted. The remaining fields are left
// as-is: stale, but unreachable through findEntry.
func (v *Volume) deleteEntry(loc entryLocation) error {
	if err := v.dev.ReadSector(v.drive, loc.lba, &v.sector); err != nil {
		return errors.Wrap(err, "directory")
	}
	v.sector[loc.offset] = slotDeleted
	if err := v.dev.WriteSector(v.drive, loc.lba, &v.sector); err != nil {
		return errors.Wrap(err, "directory")
	}
	return nil
}

// updateEntry rewrites the start cluster and size fields of the slot.
// This is the commit point of WriteFile: before it runs the old content
// is authoritative, afterwards the new one is.
func (v *Volume) updateEntry(loc entryLocation, startCluster uint32, size uint32) error {
	if err := v.dev.ReadSector(v.drive, loc.lba, &v.sector); err != nil {
		return errors.Wrap(err, "directory")
	}
	binary.LittleEndian.PutUint16(v.sector[loc.offset+20:], uint16(startCluster>>16))
	binary.LittleEndian.PutUint16(v.sector[loc.offset+26:], uint16(startCluster))
	binary.LittleEndian.PutUint32(v.sector[loc.offset+28:], size)
	if err := v.dev.WriteSector(v.drive, loc.lba, &v.sector); err != nil {
		return errors.Wrap(err, "directory")
	}
	return nil
}

// listEntries collects up to limit live file entries from the chain,
// skipping volume labels and subdirectory entries and stopping at the
// first terminating slot. limit <= 0 means no limit.
func (v *Volume) listEntries(dirStart uint32, limit int) ([]Entry, error) {
	var out []Entry

	cluster := dirStart
	for isDataCluster(cluster) {
		base := v.clusterToSector(cluster)

		for sec := uint32(0); sec < uint32(v.info.SectorsPerCluster); sec++ {
			if err := v.dev.ReadSector(v.drive, base+sec, &v.sector); err != nil {
				return nil, errors.Wrap(err, "directory")
			}

			for off := uint32(0); off < SectorSize; off += dirEntrySize {
				if v.sector[off] == slotEndOfDir {
					return out, nil
				}
				if v.sector[off] == slotDeleted {
					continue
				}
				if v.sector[off+11]&(AttrVolumeLabel|AttrDirectory) != 0 {
					continue
				}

				var e Entry
				if err := restruct.Unpack(v.sector[off:off+dirEntrySize], binary.LittleEndian, &e.EntryHeader); err != nil {
					return nil, errors.Wrap(err, "unpack directory entry")
				}
				out = append(out, e)
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
			}
		}

		next, err := v.readEntry(cluster)
		if err != nil {
			return nil, err
		}
		if !next.IsNextCluster() {
			break
		}
		cluster = next.Value()
	}
	return out, nil
}
