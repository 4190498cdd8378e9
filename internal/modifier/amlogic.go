package modifier

var (
	amlogicLayout  = bitfield{0, 8}
	amlogicOptions = bitfield{8, 8}
)

const (
	amlogicLayoutBasic   = 1
	amlogicLayoutScatter = 2

	amlogicOptionMemSaving = 1 << 0
)

var amlogicLayouts = enum{
	amlogicLayoutBasic:   "BASIC",
	amlogicLayoutScatter: "SCATTER",
}

func decodeAmlogic(mod uint64) Decoded {
	options := "0"
	if amlogicOptions.get(mod)&amlogicOptionMemSaving != 0 {
		options = "MEM_SAVING"
	}

	return Decoded{Name: "AMLOGIC_FBC", Fields: []Field{
		label("layout", amlogicLayouts.label(amlogicLayout.get(mod))),
		label("options", options),
	}}
}
