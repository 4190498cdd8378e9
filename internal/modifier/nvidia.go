package modifier

// NVIDIA 16Bx2 block-linear layout.
var (
	nvidiaBlockLinear = bitfield{4, 1}
	nvidiaH           = bitfield{0, 4}  // log2(height) of a block in GOBs
	nvidiaK           = bitfield{12, 8} // page kind
	nvidiaG           = bitfield{20, 2} // GOB height and page kind generation
	nvidiaS           = bitfield{22, 1} // sector layout
	nvidiaC           = bitfield{23, 3} // compression type
)

func decodeNVIDIA(mod uint64) Decoded {
	if !nvidiaBlockLinear.set(mod) {
		return Decoded{Name: "NVIDIA", Unknown: true}
	}

	return Decoded{
		Name: "NVIDIA_BLOCK_LINEAR_2D",
		Fields: []Field{
			number("h", nvidiaH.get(mod)),
			number("k", nvidiaK.get(mod)),
			number("g", nvidiaG.get(mod)),
			number("s", nvidiaS.get(mod)),
			number("c", nvidiaC.get(mod)),
		},
		compact: true,
	}
}
