package fat32

// fatEntry is one 32-bit FAT entry. Only the low 28 bits are significant;
// the top nibble is reserved and must be preserved when the entry is
// rewritten, which writeEntry takes care of. All accessors operate on the
// masked value so callers never touch the raw bit layout.
type fatEntry uint32

const (
	entryMask          = 0x0FFFFFFF
	reservedNibbleMask = 0xF0000000

	firstDataCluster   = 2
	firstReservedValue = 0x0FFFFFF0
	badClusterValue    = 0x0FFFFFF7
	firstEOCValue      = 0x0FFFFFF8

	// eocMarker is the value written to terminate a chain.
	eocMarker = 0x0FFFFFFF
)

// Value returns the significant low 28 bits.
func (e fatEntry) Value() uint32 {
	return uint32(e) & entryMask
}

// IsFree reports whether the cluster is unallocated.
func (e fatEntry) IsFree() bool {
	return e.Value() == 0
}

// IsReservedTemp reports the value 1, reserved by the specification.
func (e fatEntry) IsReservedTemp() bool {
	return e.Value() == 1
}

// IsReservedRange reports values 0x0FFFFFF0-0x0FFFFFF6.
func (e fatEntry) IsReservedRange() bool {
	v := e.Value()
	return v >= firstReservedValue && v < badClusterValue
}

// IsBad reports the bad-cluster marker 0x0FFFFFF7.
func (e fatEntry) IsBad() bool {
	return e.Value() == badClusterValue
}

// IsEOC reports the end-of-chain range 0x0FFFFFF8-0x0FFFFFFF.
func (e fatEntry) IsEOC() bool {
	v := e.Value()
	return v >= firstEOCValue && v <= eocMarker
}

// IsNextCluster reports whether the value is the index of the next
// cluster in a chain.
func (e fatEntry) IsNextCluster() bool {
	v := e.Value()
	return v >= firstDataCluster && v < firstReservedValue
}

// isDataCluster reports whether c is a plausible data-cluster index, the
// guard every chain walk uses before dereferencing c.
func isDataCluster(c uint32) bool {
	return c >= firstDataCluster && c < firstReservedValue
}
