package drm

import (
	"encoding/binary"
	"fmt"
)

// Mode is struct drm_mode_modeinfo.
type Mode struct {
	Clock      uint32
	HDisplay   uint16
	HSyncStart uint16
	HSyncEnd   uint16
	HTotal     uint16
	HSkew      uint16
	VDisplay   uint16
	VSyncStart uint16
	VSyncEnd   uint16
	VTotal     uint16
	VScan      uint16
	VRefresh   uint32
	Flags      uint32
	Type       uint32
	Name       string
}

const modeInfoSize = 68

func (m *sysModeInfo) mode() Mode {
	return Mode{
		Clock:      m.clock,
		HDisplay:   m.hdisplay,
		HSyncStart: m.hsyncStart,
		HSyncEnd:   m.hsyncEnd,
		HTotal:     m.htotal,
		HSkew:      m.hskew,
		VDisplay:   m.vdisplay,
		VSyncStart: m.vsyncStart,
		VSyncEnd:   m.vsyncEnd,
		VTotal:     m.vtotal,
		VScan:      m.vscan,
		VRefresh:   m.vrefresh,
		Flags:      m.flags,
		Type:       m.typ,
		Name:       cstring(m.name[:]),
	}
}

// ParseModeInfo decodes a MODE_ID blob.
func ParseModeInfo(b []byte) (Mode, error) {
	if len(b) < modeInfoSize {
		return Mode{}, fmt.Errorf("mode info: %w: %d bytes", ErrShortBlob, len(b))
	}
	ne := binary.NativeEndian
	u16 := func(off int) uint16 { return ne.Uint16(b[off:]) }
	return Mode{
		Clock:      ne.Uint32(b[0:]),
		HDisplay:   u16(4),
		HSyncStart: u16(6),
		HSyncEnd:   u16(8),
		HTotal:     u16(10),
		HSkew:      u16(12),
		VDisplay:   u16(14),
		VSyncStart: u16(16),
		VSyncEnd:   u16(18),
		VTotal:     u16(20),
		VScan:      u16(22),
		VRefresh:   ne.Uint32(b[24:]),
		Flags:      ne.Uint32(b[28:]),
		Type:       ne.Uint32(b[32:]),
		Name:       cstring(b[36 : 36+displayModeLen]),
	}, nil
}

// FormatModifier is one modifier of an IN_FORMATS blob with the formats
// that support it.
type FormatModifier struct {
	Modifier uint64
	Formats  []uint32
}

// ParseInFormats decodes an IN_FORMATS blob (struct drm_format_modifier_blob).
// Each modifier entry carries a 64-bit mask selecting formats starting at
// its offset into the format list.
func ParseInFormats(b []byte) ([]FormatModifier, error) {
	if len(b) < formatModifierBlobSize {
		return nil, fmt.Errorf("in formats: %w: %d bytes", ErrShortBlob, len(b))
	}
	ne := binary.NativeEndian
	var (
		countFormats   = int(ne.Uint32(b[8:]))
		formatsOffset  = int(ne.Uint32(b[12:]))
		countModifiers = int(ne.Uint32(b[16:]))
		modsOffset     = int(ne.Uint32(b[20:]))
	)
	if formatsOffset+4*countFormats > len(b) || modsOffset+formatModifierSize*countModifiers > len(b) {
		return nil, fmt.Errorf("in formats: %w: %d formats, %d modifiers in %d bytes",
			ErrShortBlob, countFormats, countModifiers, len(b))
	}
	formats := make([]uint32, countFormats)
	for i := range formats {
		formats[i] = ne.Uint32(b[formatsOffset+4*i:])
	}

	out := make([]FormatModifier, 0, countModifiers)
	for i := range countModifiers {
		e := b[modsOffset+formatModifierSize*i:]
		mask := ne.Uint64(e[0:])
		offset := int(ne.Uint32(e[8:]))
		fm := FormatModifier{Modifier: ne.Uint64(e[16:]), Formats: []uint32{}}
		for j := range 64 {
			if mask&(1<<j) == 0 {
				continue
			}
			if offset+j >= len(formats) {
				return nil, fmt.Errorf("in formats: modifier %d references format %d of %d",
					i, offset+j, len(formats))
			}
			fm.Formats = append(fm.Formats, formats[offset+j])
		}
		out = append(out, fm)
	}
	return out, nil
}

// ParseFormatList decodes a WRITEBACK_PIXEL_FORMATS blob, a packed array
// of fourcc codes. Trailing bytes are ignored.
func ParseFormatList(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.NativeEndian.Uint32(b[4*i:])
	}
	return out
}

// HDMIStaticMetadataType1 is the only HDR metadata type the kernel defines.
const HDMIStaticMetadataType1 = 0

// Chromaticity is a CIE 1931 xy coordinate.
type Chromaticity struct {
	X float64
	Y float64
}

// HDRMetadata is a decoded HDR_OUTPUT_METADATA blob. Only Type is set for
// metadata types other than HDMIStaticMetadataType1.
type HDRMetadata struct {
	Type                         uint32
	EOTF                         *uint8
	DisplayPrimaries             [3]Chromaticity
	WhitePoint                   Chromaticity
	MaxDisplayMasteringLuminance uint16
	MinDisplayMasteringLuminance float64
	MaxCLL                       uint16
	MaxFALL                      uint16
}

// struct hdr_output_metadata: u32 type followed by the infoframe.
const (
	hdrInfoframeOffset = 4
	hdrInfoframeSize   = 26
)

// ParseHDRMetadata decodes an HDR_OUTPUT_METADATA blob. Display primaries
// are in red, green, blue order. The kernel stores coordinates in units of
// 0.00002 and the minimum luminance in units of 0.0001 cd/m².
func ParseHDRMetadata(b []byte) (*HDRMetadata, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("hdr output metadata: %w: %d bytes", ErrShortBlob, len(b))
	}
	ne := binary.NativeEndian
	meta := &HDRMetadata{Type: ne.Uint32(b)}
	if meta.Type != HDMIStaticMetadataType1 {
		return meta, nil
	}
	if len(b) < hdrInfoframeOffset+hdrInfoframeSize {
		return nil, fmt.Errorf("hdr output metadata: %w: %d bytes", ErrShortBlob, len(b))
	}
	f := b[hdrInfoframeOffset:]
	coord := func(off int) Chromaticity {
		return Chromaticity{
			X: float64(ne.Uint16(f[off:])) / 50000,
			Y: float64(ne.Uint16(f[off+2:])) / 50000,
		}
	}
	eotf := f[0]
	meta.EOTF = &eotf
	meta.DisplayPrimaries = [3]Chromaticity{coord(2), coord(6), coord(10)}
	meta.WhitePoint = coord(14)
	meta.MaxDisplayMasteringLuminance = ne.Uint16(f[18:])
	meta.MinDisplayMasteringLuminance = float64(ne.Uint16(f[20:])) / 10000
	meta.MaxCLL = ne.Uint16(f[22:])
	meta.MaxFALL = ne.Uint16(f[24:])
	return meta, nil
}
