// Package fourcc names DRM pixel formats (drm_fourcc.h codes).
package fourcc

import (
	"fmt"
	"sort"
)

// BigEndian is DRM_FORMAT_BIG_ENDIAN.
const BigEndian uint32 = 1 << 31

// Code builds a fourcc code the way fourcc_code() does.
func Code(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

var (
	XRGB8888 = Code('X', 'R', '2', '4')
	ARGB8888 = Code('A', 'R', '2', '4')
	NV12     = Code('N', 'V', '1', '2')
)

var names = map[uint32]string{
	0: "INVALID",

	Code('C', '1', ' ', ' '): "C1",
	Code('C', '2', ' ', ' '): "C2",
	Code('C', '4', ' ', ' '): "C4",
	Code('C', '8', ' ', ' '): "C8",
	Code('R', '8', ' ', ' '): "R8",
	Code('R', '1', '0', ' '): "R10",
	Code('R', '1', '2', ' '): "R12",
	Code('R', '1', '6', ' '): "R16",
	Code('R', 'G', '8', '8'): "RG88",
	Code('G', 'R', '8', '8'): "GR88",
	Code('R', 'G', '3', '2'): "RG1616",
	Code('G', 'R', '3', '2'): "GR1616",

	Code('R', 'G', 'B', '8'): "RGB332",
	Code('B', 'G', 'R', '8'): "BGR233",

	Code('X', 'R', '1', '2'): "XRGB4444",
	Code('X', 'B', '1', '2'): "XBGR4444",
	Code('R', 'X', '1', '2'): "RGBX4444",
	Code('B', 'X', '1', '2'): "BGRX4444",
	Code('A', 'R', '1', '2'): "ARGB4444",
	Code('A', 'B', '1', '2'): "ABGR4444",
	Code('R', 'A', '1', '2'): "RGBA4444",
	Code('B', 'A', '1', '2'): "BGRA4444",

	Code('X', 'R', '1', '5'): "XRGB1555",
	Code('X', 'B', '1', '5'): "XBGR1555",
	Code('R', 'X', '1', '5'): "RGBX5551",
	Code('B', 'X', '1', '5'): "BGRX5551",
	Code('A', 'R', '1', '5'): "ARGB1555",
	Code('A', 'B', '1', '5'): "ABGR1555",
	Code('R', 'A', '1', '5'): "RGBA5551",
	Code('B', 'A', '1', '5'): "BGRA5551",

	Code('R', 'G', '1', '6'): "RGB565",
	Code('B', 'G', '1', '6'): "BGR565",
	Code('R', 'G', '2', '4'): "RGB888",
	Code('B', 'G', '2', '4'): "BGR888",

	Code('X', 'R', '2', '4'): "XRGB8888",
	Code('X', 'B', '2', '4'): "XBGR8888",
	Code('R', 'X', '2', '4'): "RGBX8888",
	Code('B', 'X', '2', '4'): "BGRX8888",
	Code('A', 'R', '2', '4'): "ARGB8888",
	Code('A', 'B', '2', '4'): "ABGR8888",
	Code('R', 'A', '2', '4'): "RGBA8888",
	Code('B', 'A', '2', '4'): "BGRA8888",

	Code('X', 'R', '3', '0'): "XRGB2101010",
	Code('X', 'B', '3', '0'): "XBGR2101010",
	Code('R', 'X', '3', '0'): "RGBX1010102",
	Code('B', 'X', '3', '0'): "BGRX1010102",
	Code('A', 'R', '3', '0'): "ARGB2101010",
	Code('A', 'B', '3', '0'): "ABGR2101010",
	Code('R', 'A', '3', '0'): "RGBA1010102",
	Code('B', 'A', '3', '0'): "BGRA1010102",

	Code('X', 'R', '4', '8'): "XRGB16161616",
	Code('X', 'B', '4', '8'): "XBGR16161616",
	Code('A', 'R', '4', '8'): "ARGB16161616",
	Code('A', 'B', '4', '8'): "ABGR16161616",
	Code('X', 'R', '4', 'H'): "XRGB16161616F",
	Code('X', 'B', '4', 'H'): "XBGR16161616F",
	Code('A', 'R', '4', 'H'): "ARGB16161616F",
	Code('A', 'B', '4', 'H'): "ABGR16161616F",
	Code('A', 'B', '1', '0'): "AXBXGXRX106106106106",

	Code('Y', 'U', 'Y', 'V'): "YUYV",
	Code('Y', 'V', 'Y', 'U'): "YVYU",
	Code('U', 'Y', 'V', 'Y'): "UYVY",
	Code('V', 'Y', 'U', 'Y'): "VYUY",
	Code('A', 'Y', 'U', 'V'): "AYUV",
	Code('X', 'Y', 'U', 'V'): "XYUV8888",
	Code('V', 'U', '2', '4'): "VUY888",
	Code('V', 'U', '3', '0'): "VUY101010",
	Code('Y', '2', '1', '0'): "Y210",
	Code('Y', '2', '1', '2'): "Y212",
	Code('Y', '2', '1', '6'): "Y216",
	Code('Y', '4', '1', '0'): "Y410",
	Code('Y', '4', '1', '2'): "Y412",
	Code('Y', '4', '1', '6'): "Y416",

	Code('N', 'V', '1', '2'): "NV12",
	Code('N', 'V', '2', '1'): "NV21",
	Code('N', 'V', '1', '6'): "NV16",
	Code('N', 'V', '6', '1'): "NV61",
	Code('N', 'V', '2', '4'): "NV24",
	Code('N', 'V', '4', '2'): "NV42",
	Code('N', 'V', '1', '5'): "NV15",
	Code('N', 'V', '2', '0'): "NV20",
	Code('N', 'V', '3', '0'): "NV30",
	Code('P', '2', '1', '0'): "P210",
	Code('P', '0', '1', '0'): "P010",
	Code('P', '0', '1', '2'): "P012",
	Code('P', '0', '1', '6'): "P016",
	Code('P', '0', '3', '0'): "P030",
	Code('Q', '4', '1', '0'): "Q410",
	Code('Q', '4', '0', '1'): "Q401",

	Code('Y', 'U', 'V', '9'): "YUV410",
	Code('Y', 'V', 'U', '9'): "YVU410",
	Code('Y', 'U', '1', '1'): "YUV411",
	Code('Y', 'V', '1', '1'): "YVU411",
	Code('Y', 'U', '1', '2'): "YUV420",
	Code('Y', 'V', '1', '2'): "YVU420",
	Code('Y', 'U', '1', '6'): "YUV422",
	Code('Y', 'V', '1', '6'): "YVU422",
	Code('Y', 'U', '2', '4'): "YUV444",
	Code('Y', 'V', '2', '4'): "YVU444",
}

// Name returns the DRM name of code, e.g. XRGB8888. Codes outside the
// table fall back to their four characters when those are printable.
func Name(code uint32) string {
	suffix := ""
	if code&BigEndian != 0 && code != BigEndian {
		code &^= BigEndian
		suffix = " (big-endian)"
	}

	if name, ok := names[code]; ok {
		return name + suffix
	}

	chars := []byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)}
	for _, c := range chars {
		if c < 0x20 || c > 0x7e {
			return "unknown" + suffix
		}
	}
	return string(chars) + suffix
}

// Format returns "NAME (0x........)".
func Format(code uint32) string {
	return fmt.Sprintf("%s (0x%08x)", Name(code), code)
}

// Known returns every named format code, sorted by name.
func Known() []uint32 {
	codes := make([]uint32, 0, len(names))
	for code := range names {
		if code != 0 {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		return names[codes[i]] < names[codes[j]]
	})
	return codes
}
