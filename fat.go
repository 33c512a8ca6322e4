package fat32

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// The file allocation table. One entry per cluster, four bytes each,
// replicated NumFATs times; all copies are kept byte-identical. A single
// cached FAT sector serves reads; writes go through the cache to every
// copy.

// fatLocation computes the holding sector and byte offset of a cluster's
// FAT entry.
func (v *Volume) fatLocation(cluster uint32) (lba uint32, offset uint32) {
	byteOff := cluster * 4
	lba = uint32(v.info.ReservedSectors) + byteOff/uint32(v.info.BytesPerSector)
	offset = byteOff % uint32(v.info.BytesPerSector)
	return lba, offset
}

// loadFATSector brings the given FAT sector into the cache unless it is
// already there.
func (v *Volume) loadFATSector(lba uint32) error {
	if v.fatValid && v.fatLBA == lba {
		return nil
	}
	if err := v.dev.ReadSector(v.drive, lba, &v.fatBuf); err != nil {
		v.fatValid = false
		return errors.Wrap(err, "FAT")
	}
	v.fatLBA = lba
	v.fatValid = true
	return nil
}

// readEntry returns the FAT entry for the given cluster. The reserved top
// nibble is retained in the returned value; fatEntry.Value masks it.
func (v *Volume) readEntry(cluster uint32) (fatEntry, error) {
	lba, off := v.fatLocation(cluster)
	if err := v.loadFATSector(lba); err != nil {
		return 0, err
	}
	return fatEntry(binary.LittleEndian.Uint32(v.fatBuf[off:])), nil
}

// writeEntry stores value into the cluster's FAT entry, preserving the
// reserved top nibble, and replicates the updated sector to every FAT
// copy so they stay byte-identical.
func (v *Volume) writeEntry(cluster uint32, value uint32) error {
	lba, off := v.fatLocation(cluster)
	if err := v.loadFATSector(lba); err != nil {
		return err
	}

	old := binary.LittleEndian.Uint32(v.fatBuf[off:])
	binary.LittleEndian.PutUint32(v.fatBuf[off:], old&reservedNibbleMask|value&entryMask)

	for k := uint32(0); k < uint32(v.info.NumFATs); k++ {
		if err := v.dev.WriteSector(v.drive, lba+k*v.info.FATSize32, &v.fatBuf); err != nil {
			return errors.Wrap(err, "FAT")
		}
	}
	return nil
}

// findFreeCluster returns the lowest-numbered free cluster. This is a
// linear scan over the whole table, O(volume size); acceptable at the
// scale this filesystem targets, but failure timing degrades under heavy
// fragmentation.
func (v *Volume) findFreeCluster() (uint32, error) {
	for c := uint32(firstDataCluster); c <= v.info.MaxCluster; c++ {
		e, err := v.readEntry(c)
		if err != nil {
			return 0, err
		}
		if e.IsFree() {
			return c, nil
		}
	}
	return 0, ErrNoSpace
}

// allocCluster claims a free cluster by immediately marking it
// end-of-chain, so a later scan cannot hand out the same cluster before
// it is linked into a chain.
func (v *Volume) allocCluster() (uint32, error) {
	c, err := v.findFreeCluster()
	if err != nil {
		return 0, err
	}
	if err := v.writeEntry(c, eocMarker); err != nil {
		return 0, err
	}
	return c, nil
}

// freeChain zeroes every entry of the chain starting at start, stopping
// at an end-of-chain or otherwise invalid value.
func (v *Volume) freeChain(start uint32) error {
	c := start
	for isDataCluster(c) {
		next, err := v.readEntry(c)
		if err != nil {
			return err
		}
		if err := v.writeEntry(c, 0); err != nil {
			return err
		}
		if !next.IsNextCluster() {
			break
		}
		c = next.Value()
	}
	return nil
}
