package fat32

import (
	"time"
)

// ParseDate decodes a 16-bit FAT date stamp, counted from the MS-DOS
// epoch of 1980-01-01: bits 0-4 day of month (1-31), bits 5-8 month
// (1-12), bits 9-15 years since 1980 (0-127).
//
// Day or month zero is invalid per the on-disk format, and newly created
// entries carry zeroed stamps; those decode to time.Time{} so callers can
// use IsZero.
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime decodes a 16-bit FAT time stamp with 2-second granularity:
// bits 0-4 two-second count (0-29), bits 5-10 minutes, bits 11-15 hours.
// The result always carries the date January 1, year 1, so midnight
// satisfies IsZero.
//
// Out-of-range fields simply add up; the result is clamped to 23:59:59
// rather than spilling into the next day.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}
