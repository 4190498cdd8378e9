package modifier

// AMD_FMT_MOD_* fields.
var (
	amdTileVersion           = bitfield{0, 8}
	amdTile                  = bitfield{8, 5}
	amdDCC                   = bitfield{13, 1}
	amdDCCRetile             = bitfield{14, 1}
	amdDCCPipeAlign          = bitfield{15, 1}
	amdDCCIndependent64B     = bitfield{16, 1}
	amdDCCIndependent128B    = bitfield{17, 1}
	amdDCCMaxCompressedBlock = bitfield{18, 2}
	amdDCCConstantEncode     = bitfield{20, 1}
	amdPipeXORBits           = bitfield{21, 3}
	amdBankXORBits           = bitfield{24, 3}
	amdPackers               = bitfield{27, 3}
	amdRB                    = bitfield{30, 3}
	amdPipe                  = bitfield{33, 3}
)

const (
	amdTileVerGFX9        = 1
	amdTileVerGFX10       = 2
	amdTileVerGFX10RBPlus = 3
	amdTileVerGFX11       = 4
)

const (
	amdTileGFX9_64K_S     = 9
	amdTileGFX9_64K_D     = 10
	amdTileGFX9_64K_S_X   = 25
	amdTileGFX9_64K_D_X   = 26
	amdTileGFX9_64K_R_X   = 27
	amdTileGFX11_256K_R_X = 31
)

var amdTileVersions = enum{
	amdTileVerGFX9:        "GFX9",
	amdTileVerGFX10:       "GFX10",
	amdTileVerGFX10RBPlus: "GFX10_RBPLUS",
	amdTileVerGFX11:       "GFX11",
}

var amdTiles = enum{
	amdTileGFX9_64K_S:     "GFX9_64K_S",
	amdTileGFX9_64K_D:     "GFX9_64K_D",
	amdTileGFX9_64K_S_X:   "GFX9_64K_S_X",
	amdTileGFX9_64K_D_X:   "GFX9_64K_D_X",
	amdTileGFX9_64K_R_X:   "GFX9_64K_R_X",
	amdTileGFX11_256K_R_X: "GFX11_256K_R_X",
}

var amdDCCBlockSizes = enum{
	0: "64B",
	1: "128B",
	2: "256B",
}

// amdTileLabel only knows tile modes of the GFX9 family onwards.
func amdTileLabel(tile, version uint64) string {
	if _, ok := amdTileVersions[version]; !ok {
		return unknown
	}
	return amdTiles.label(tile)
}

// amdTileIsX reports whether tile is one of the GFX9 _X swizzle modes that
// carry XOR bits.
func amdTileIsX(tile uint64) bool {
	switch tile {
	case amdTileGFX9_64K_S_X, amdTileGFX9_64K_D_X, amdTileGFX9_64K_R_X:
		return true
	}
	return false
}

func decodeAMD(mod uint64) Decoded {
	version := amdTileVersion.get(mod)
	tile := amdTile.get(mod)
	dcc := amdDCC.set(mod)
	retile := amdDCCRetile.set(mod)

	fields := []Field{
		label("TILE_VERSION", amdTileVersions.label(version)),
		label("TILE", amdTileLabel(tile, version)),
	}

	if dcc {
		fields = append(fields, flag("DCC"))
		if retile {
			fields = append(fields, flag("DCC_RETILE"))
		} else if amdDCCPipeAlign.set(mod) {
			fields = append(fields, flag("DCC_PIPE_ALIGN"))
		}
		if amdDCCIndependent64B.set(mod) {
			fields = append(fields, flag("DCC_INDEPENDENT_64B"))
		}
		if amdDCCIndependent128B.set(mod) {
			fields = append(fields, flag("DCC_INDEPENDENT_128B"))
		}
		fields = append(fields, label("DCC_MAX_COMPRESSED_BLOCK",
			amdDCCBlockSizes.label(amdDCCMaxCompressedBlock.get(mod))))
		if amdDCCConstantEncode.set(mod) {
			fields = append(fields, flag("DCC_CONSTANT_ENCODE"))
		}
	}

	if version >= amdTileVerGFX9 && amdTileIsX(tile) {
		fields = append(fields, number("PIPE_XOR_BITS", amdPipeXORBits.get(mod)))
		if version == amdTileVerGFX9 {
			fields = append(fields, number("BANK_XOR_BITS", amdBankXORBits.get(mod)))
		}
		if version == amdTileVerGFX10RBPlus {
			fields = append(fields, number("PACKERS", amdPackers.get(mod)))
		}
		if version == amdTileVerGFX9 && dcc {
			fields = append(fields, number("RB", amdRB.get(mod)))
		}
		if version == amdTileVerGFX9 && dcc && (retile || amdDCCPipeAlign.set(mod)) {
			fields = append(fields, number("PIPE", amdPipe.get(mod)))
		}
	}

	return Decoded{Name: "AMD", Fields: fields}
}
