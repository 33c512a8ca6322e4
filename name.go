package fat32

import (
	"strings"
)

// encodeName folds a user-supplied name into the on-disk space-padded,
// uppercased 8.3 form. The base name is cut at eight bytes and the
// extension at three. An over-long base never reaches its dot, so the
// excess characters and the extension are both dropped.
func encodeName(name string) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}

	i, j := 0, 0
	for i < len(name) && name[i] != '.' && j < 8 {
		out[j] = upperByte(name[i])
		i++
		j++
	}
	if i < len(name) && name[i] == '.' {
		i++
		for k := 0; i < len(name) && k < 3; k++ {
			out[8+k] = upperByte(name[i])
			i++
		}
	}
	return out
}

// decodeName renders the 11-byte on-disk form back as NAME.EXT, dropping
// the padding.
func decodeName(raw [11]byte) string {
	base := strings.TrimRight(string(raw[:8]), " ")
	ext := strings.TrimRight(string(raw[8:11]), " ")

	if ext != "" {
		return base + "." + ext
	}
	return base
}

func upperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 32
	}
	return c
}
