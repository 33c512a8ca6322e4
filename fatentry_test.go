package fat32

import (
	"testing"
)

func Test_fatEntry_Value(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want uint32
	}{
		{name: "zero", e: 0, want: 0},
		{name: "plain cluster index", e: 5, want: 5},
		{name: "reserved nibble is masked", e: 0xF0000005, want: 5},
		{name: "full word", e: 0xFFFFFFFF, want: 0x0FFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Value(); got != tt.want {
				t.Errorf("fatEntry.Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsFree(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "free", e: 0, want: true},
		{name: "free with dirty reserved nibble", e: 0xA0000000, want: true},
		{name: "allocated", e: 3, want: false},
		{name: "end of chain", e: eocMarker, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsFree(); got != tt.want {
				t.Errorf("fatEntry.IsFree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsReservedTemp(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "one", e: 1, want: true},
		{name: "zero", e: 0, want: false},
		{name: "two", e: 2, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsReservedTemp(); got != tt.want {
				t.Errorf("fatEntry.IsReservedTemp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsReservedRange(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "start of range", e: 0x0FFFFFF0, want: true},
		{name: "end of range", e: 0x0FFFFFF6, want: true},
		{name: "bad cluster is not reserved", e: 0x0FFFFFF7, want: false},
		{name: "last data cluster", e: 0x0FFFFFEF, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsReservedRange(); got != tt.want {
				t.Errorf("fatEntry.IsReservedRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsBad(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "bad marker", e: 0x0FFFFFF7, want: true},
		{name: "bad marker with reserved nibble", e: 0xFFFFFFF7, want: true},
		{name: "end of chain", e: 0x0FFFFFF8, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsBad(); got != tt.want {
				t.Errorf("fatEntry.IsBad() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsEOC(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "start of EOC range", e: 0x0FFFFFF8, want: true},
		{name: "canonical marker", e: eocMarker, want: true},
		{name: "full raw word", e: 0xFFFFFFFF, want: true},
		{name: "bad cluster", e: 0x0FFFFFF7, want: false},
		{name: "chain link", e: 9, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsEOC(); got != tt.want {
				t.Errorf("fatEntry.IsEOC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsNextCluster(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "first data cluster", e: 2, want: true},
		{name: "highest data cluster", e: 0x0FFFFFEF, want: true},
		{name: "free", e: 0, want: false},
		{name: "reserved", e: 1, want: false},
		{name: "reserved range", e: 0x0FFFFFF0, want: false},
		{name: "end of chain", e: eocMarker, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsNextCluster(); got != tt.want {
				t.Errorf("fatEntry.IsNextCluster() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_isDataCluster(t *testing.T) {
	tests := []struct {
		name string
		c    uint32
		want bool
	}{
		{name: "zero", c: 0, want: false},
		{name: "one", c: 1, want: false},
		{name: "two", c: 2, want: true},
		{name: "last valid", c: 0x0FFFFFEF, want: true},
		{name: "reserved range", c: 0x0FFFFFF0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDataCluster(tt.c); got != tt.want {
				t.Errorf("isDataCluster(%#x) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}
