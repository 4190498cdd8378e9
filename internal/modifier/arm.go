package modifier

var (
	armType  = bitfield{52, 4}
	armValue = bitfield{0, 52}
)

const (
	armTypeAFBC = 0x00
	armTypeMISC = 0x01
	armTypeAFRC = 0x02
)

// AFBC_FORMAT_MOD_* bits within the 52-bit value.
var (
	afbcBlockSize = bitfield{0, 4}

	afbcFlags = []struct {
		name string
		bit  bitfield
	}{
		{"YTR", bitfield{4, 1}},
		{"SPLIT", bitfield{5, 1}},
		{"SPARSE", bitfield{6, 1}},
		{"CBR", bitfield{7, 1}},
		{"TILED", bitfield{8, 1}},
		{"SC", bitfield{9, 1}},
		{"DB", bitfield{10, 1}},
		{"BCH", bitfield{11, 1}},
		{"USM", bitfield{12, 1}},
	}
)

var afbcBlockSizes = enum{
	1: "16x16",
	2: "32x8",
	3: "64x4",
	4: "32x8_64x4",
}

// AFRC_FORMAT_MOD_* fields within the 52-bit value.
var (
	afrcCUSizeP0  = bitfield{0, 4}
	afrcCUSizeP12 = bitfield{4, 4}
	afrcScan      = bitfield{8, 1}
)

var afrcCUSizes = enum{
	1: "16",
	2: "24",
	3: "32",
}

// ARM16x16BlockUInterleaved is DRM_FORMAT_MOD_ARM_16X16_BLOCK_U_INTERLEAVED.
var ARM16x16BlockUInterleaved = Code(VendorARM, armType.put(armTypeMISC)|1)

func decodeARM(mod uint64) Decoded {
	value := armValue.get(mod)

	switch armType.get(mod) {
	case armTypeAFBC:
		fields := []Field{label("BLOCK_SIZE", afbcBlockSizes.label(afbcBlockSize.get(value)))}
		for _, f := range afbcFlags {
			if f.bit.set(value) {
				fields = append(fields, flag(f.name))
			}
		}
		return Decoded{Name: "ARM_AFBC", Fields: fields}

	case armTypeMISC:
		if mod == ARM16x16BlockUInterleaved {
			return Decoded{Name: "ARM_16X16_BLOCK_U_INTERLEAVED"}
		}
		return Decoded{Name: "ARM_MISC", Unknown: true}

	case armTypeAFRC:
		layout := "ROT"
		if afrcScan.set(value) {
			layout = "SCAN"
		}
		return Decoded{Name: "ARM_AFRC", Fields: []Field{
			label("CU_SIZE_P0", afrcCUSizes.label(afrcCUSizeP0.get(value))),
			label("CU_SIZE_P12", afrcCUSizes.label(afrcCUSizeP12.get(value))),
			flag(layout),
		}}
	}

	return Decoded{Name: "ARM", Unknown: true}
}
