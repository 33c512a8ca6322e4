package fat32

import (
	"encoding/binary"
	"io/ioutil"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Test volumes are synthesized in memory instead of shipping binary image
// fixtures; that also lets individual tests shape the geometry, e.g. a
// volume with exactly two free clusters.

type imageGeometry struct {
	sectorsPerCluster uint8
	dataClusters      uint32
	reservedSectors   uint16
	numFATs           uint8
	label             string
}

func defaultGeometry() imageGeometry {
	return imageGeometry{
		sectorsPerCluster: 1,
		dataClusters:      32,
		reservedSectors:   32,
		numFATs:           2,
		label:             "TESTVOL",
	}
}

// fatSectors returns the per-copy FAT size for the geometry.
func (g imageGeometry) fatSectors() uint32 {
	entries := g.dataClusters + firstDataCluster
	return (entries*4 + SectorSize - 1) / SectorSize
}

func (g imageGeometry) totalSectors() uint32 {
	return uint32(g.reservedSectors) +
		uint32(g.numFATs)*g.fatSectors() +
		g.dataClusters*uint32(g.sectorsPerCluster)
}

// buildImage synthesizes a freshly formatted FAT32 volume: boot sector,
// mirrored FATs with the root directory occupying cluster 2, and a zeroed
// data region.
func buildImage(t *testing.T, g imageGeometry) []byte {
	t.Helper()

	img := make([]byte, g.totalSectors()*SectorSize)

	img[0], img[1], img[2] = 0xEB, 0x58, 0x90
	copy(img[3:], "MSDOS5.0")
	binary.LittleEndian.PutUint16(img[11:], SectorSize)
	img[13] = g.sectorsPerCluster
	binary.LittleEndian.PutUint16(img[14:], g.reservedSectors)
	img[16] = g.numFATs
	img[21] = 0xF8
	binary.LittleEndian.PutUint32(img[32:], g.totalSectors())
	binary.LittleEndian.PutUint32(img[36:], g.fatSectors())
	binary.LittleEndian.PutUint32(img[44:], firstDataCluster)

	// FAT32 extended BPB: volume label at offset 71, space padded.
	for i := 71; i < 82; i++ {
		img[i] = ' '
	}
	copy(img[71:82], g.label)
	copy(img[82:90], "FAT32   ")

	img[510], img[511] = 0x55, 0xAA

	for k := uint32(0); k < uint32(g.numFATs); k++ {
		base := (uint32(g.reservedSectors) + k*g.fatSectors()) * SectorSize
		binary.LittleEndian.PutUint32(img[base:], 0x0FFFFFF8)   // media/reserved
		binary.LittleEndian.PutUint32(img[base+4:], eocMarker)  // reserved
		binary.LittleEndian.PutUint32(img[base+8:], eocMarker)  // root directory
	}
	return img
}

// newTestFile puts the image onto an in-memory afero file.
func newTestFile(t *testing.T, img []byte) afero.File {
	t.Helper()

	f, err := afero.NewMemMapFs().Create("volume.img")
	require.NoError(t, err)
	_, err = f.Write(img)
	require.NoError(t, err)
	return f
}

// newTestVolume builds and mounts a fresh volume.
func newTestVolume(t *testing.T, g imageGeometry) (*Volume, afero.File) {
	t.Helper()

	f := newTestFile(t, buildImage(t, g))
	vol, err := Mount(NewFileDisk(f), 0)
	require.NoError(t, err)
	return vol, f
}

// imageBytes snapshots the full backing image.
func imageBytes(t *testing.T, f afero.File) []byte {
	t.Helper()

	_, err := f.Seek(0, 0)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(f)
	require.NoError(t, err)
	return data
}

// fatValue reads the masked FAT entry of a cluster.
func fatValue(t *testing.T, vol *Volume, cluster uint32) uint32 {
	t.Helper()

	e, err := vol.readEntry(cluster)
	require.NoError(t, err)
	return e.Value()
}

// chainOf walks and returns the chain starting at start.
func chainOf(t *testing.T, vol *Volume, start uint32) []uint32 {
	t.Helper()

	var chain []uint32
	c := start
	for isDataCluster(c) {
		chain = append(chain, c)
		e, err := vol.readEntry(c)
		require.NoError(t, err)
		if !e.IsNextCluster() {
			break
		}
		c = e.Value()
	}
	return chain
}

// pattern produces deterministic, non-repeating-ish payload bytes.
func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}
