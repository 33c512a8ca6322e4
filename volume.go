package fat32

import (
	"encoding/binary"
	"strings"
	"sync"

	"github.com/go-restruct/restruct"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// VolumeInfo contains the geometry constants parsed from the boot sector.
// It is created once by Mount and never changes for the lifetime of the
// mounted volume.
type VolumeInfo struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	FATSize32         uint32
	RootCluster       uint32
	FirstDataSector   uint32
	TotalSectors      uint32

	// MaxCluster is the highest valid data-cluster index on this volume,
	// derived from the size of the data region and capped below the
	// reserved FAT value range.
	MaxCluster uint32
}

// Volume is one mounted FAT32 filesystem. All state lives here; there is
// no ambient package-level state. A Volume serializes every operation
// with a single mutex because nothing in the on-disk design tolerates
// concurrent mutation of the FAT or the directory chain.
type Volume struct {
	mu    sync.Mutex
	dev   BlockDevice
	drive uint16
	info  VolumeInfo
	label string

	mounted bool

	// sector is the scratch buffer for data and directory sectors;
	// fatBuf caches the most recently loaded FAT sector.
	sector   [SectorSize]byte
	fatBuf   [SectorSize]byte
	fatLBA   uint32
	fatValid bool
}

// Mount reads and validates the boot sector on the given device and
// returns a Volume ready for file operations. The device is expected to
// expose a FAT32 volume starting at LBA 0 of the given drive.
func Mount(dev BlockDevice, drive uint16) (*Volume, error) {
	v := &Volume{dev: dev, drive: drive}

	if err := dev.ReadSector(drive, 0, &v.sector); err != nil {
		return nil, errors.Wrap(err, "boot sector")
	}

	var bpb BPB
	if err := restruct.Unpack(v.sector[:bpbSize], binary.LittleEndian, &bpb); err != nil {
		return nil, errors.Wrap(err, "unpack BPB")
	}

	// Check for valid jump instructions first; anything else is not a FAT
	// boot sector at all.
	if !(bpb.BSJumpBoot[0] == 0xEB && bpb.BSJumpBoot[2] == 0x90) && bpb.BSJumpBoot[0] != 0xE9 {
		return nil, errors.New("no valid jump instructions at the beginning")
	}

	// The device contract transfers fixed 512-byte sectors, so larger FAT
	// sector sizes cannot be served here.
	if bpb.BytesPerSector != SectorSize {
		return nil, errors.Errorf("unsupported sector size %d", bpb.BytesPerSector)
	}

	// Sectors per cluster has to be a power of two and greater than 0.
	// Also the whole cluster size should not be more than 32K.
	spc := bpb.SectorsPerCluster
	if spc == 0 || spc&(spc-1) != 0 || uint32(bpb.BytesPerSector)*uint32(spc) > 32*1024 {
		return nil, errors.New("invalid sectors per cluster")
	}

	if bpb.ReservedSectorCount == 0 {
		return nil, errors.New("invalid reserved sector count")
	}

	if bpb.NumFATs == 0 {
		return nil, errors.New("invalid FAT count")
	}

	if bpb.Media != 0xF0 && bpb.Media < 0xF8 {
		return nil, errors.New("invalid media value")
	}

	// FAT32 keeps the legacy FAT12/16 fields zeroed; a non-zero value
	// means this is one of the older variants, which are not supported.
	if bpb.RootEntryCount != 0 || bpb.FATSize16 != 0 || bpb.TotalSectors16 != 0 {
		return nil, ErrNotFat32
	}
	if bpb.TotalSectors32 == 0 {
		return nil, ErrNotFat32
	}

	var f32 FAT32SpecificData
	if err := restruct.Unpack(bpb.FATSpecificData[:], binary.LittleEndian, &f32); err != nil {
		return nil, errors.Wrap(err, "unpack FAT32 BPB extension")
	}
	if f32.FATSize == 0 || !isDataCluster(f32.RootCluster) {
		return nil, ErrNotFat32
	}

	info := VolumeInfo{
		BytesPerSector:    bpb.BytesPerSector,
		SectorsPerCluster: spc,
		ReservedSectors:   bpb.ReservedSectorCount,
		NumFATs:           bpb.NumFATs,
		FATSize32:         f32.FATSize,
		RootCluster:       f32.RootCluster,
		TotalSectors:      bpb.TotalSectors32,
	}

	// Under FAT32 the root directory is an ordinary cluster chain, so the
	// data region starts right after the FAT copies.
	info.FirstDataSector = uint32(info.ReservedSectors) + uint32(info.NumFATs)*info.FATSize32
	if info.FirstDataSector >= info.TotalSectors {
		return nil, errors.New("data region outside volume")
	}

	clusterCount := (info.TotalSectors - info.FirstDataSector) / uint32(spc)
	info.MaxCluster = firstDataCluster + clusterCount - 1
	if info.MaxCluster >= firstReservedValue {
		info.MaxCluster = firstReservedValue - 1
	}

	v.info = info
	v.label = strings.TrimRight(string(f32.BSVolumeLabel[:]), " ")
	v.mounted = true

	logrus.WithFields(logrus.Fields{
		"label":         v.label,
		"totalSectors":  info.TotalSectors,
		"clusterSize":   uint32(spc) * uint32(info.BytesPerSector),
		"rootCluster":   info.RootCluster,
		"firstDataLBA":  info.FirstDataSector,
		"fatCopies":     info.NumFATs,
		"fatSizeBlocks": info.FATSize32,
	}).Debug("mounted FAT32 volume")

	return v, nil
}

// Info returns the immutable mount-time geometry.
func (v *Volume) Info() VolumeInfo {
	return v.info
}

// Label returns the volume label from the boot sector, without padding.
func (v *Volume) Label() string {
	return v.label
}

// clusterToSector maps a data-cluster index to its first LBA.
func (v *Volume) clusterToSector(cluster uint32) uint32 {
	return v.info.FirstDataSector + (cluster-firstDataCluster)*uint32(v.info.SectorsPerCluster)
}
