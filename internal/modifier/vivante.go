package modifier

// VIVANTE_MOD_* extension bits live in bits 44..55; the tiling mode sits
// below them.
var (
	vivanteTiling      = bitfield{0, 44}
	vivanteTileStatus  = bitfield{48, 4}
	vivanteCompression = bitfield{52, 4}
)

var vivanteTilings = enum{
	0: "LINEAR",
	1: "TILED",
	2: "SUPER_TILED",
	3: "SPLIT_TILED",
	4: "SPLIT_SUPER_TILED",
}

var vivanteTileStatuses = enum{
	1: "64_4",
	2: "64_2",
	3: "128_4",
	4: "256_4",
}

var vivanteCompressions = enum{
	1: "DEC400",
}

func decodeVivante(mod uint64) Decoded {
	fields := []Field{label("tiling", vivanteTilings.label(vivanteTiling.get(mod)))}
	if ts := vivanteTileStatus.get(mod); ts != 0 {
		fields = append(fields, label("ts", vivanteTileStatuses.label(ts)))
	}
	if comp := vivanteCompression.get(mod); comp != 0 {
		fields = append(fields, label("comp", vivanteCompressions.label(comp)))
	}
	return Decoded{Name: "VIVANTE", Fields: fields}
}
