package modifier

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		mod  uint64
		want string
	}{
		{
			name: "linear",
			mod:  0,
			want: "LINEAR (0x0000000000000000)",
		},
		{
			name: "invalid",
			mod:  Invalid,
			want: "INVALID (0x00ffffffffffffff)",
		},
		{
			name: "intel x tiled",
			mod:  0x0100000000000001,
			want: "I915_X_TILED (0x0100000000000001)",
		},
		{
			name: "nvidia without block linear bit",
			mod:  0x0300000000000000,
			want: "NVIDIA(unknown) (0x0300000000000000)",
		},
		{
			name: "nvidia block linear",
			mod:  Code(VendorNVIDIA, 0x10|0x2|0xfe<<12),
			want: "NVIDIA_BLOCK_LINEAR_2D(h=2, k=254, g=0, s=0, c=0) (0x03000000000fe012)",
		},
		{
			name: "amd gfx9 64k_s",
			mod:  Code(VendorAMD, amdTileVersion.put(amdTileVerGFX9)|amdTile.put(amdTileGFX9_64K_S)),
			want: "AMD(TILE_VERSION = GFX9, TILE = GFX9_64K_S) (0x0200000000000901)",
		},
		{
			name: "arm afbc",
			mod:  Code(VendorARM, 1|1<<4|1<<5),
			want: "ARM_AFBC(BLOCK_SIZE = 16x16, YTR, SPLIT) (0x0800000000000031)",
		},
		{
			name: "arm interleaved",
			mod:  ARM16x16BlockUInterleaved,
			want: "ARM_16X16_BLOCK_U_INTERLEAVED (0x0810000000000001)",
		},
		{
			name: "amlogic",
			mod:  Code(VendorAmlogic, 1|1<<8),
			want: "AMLOGIC_FBC(layout = BASIC, options = MEM_SAVING) (0x0a00000000000101)",
		},
		{
			name: "vivante super tiled",
			mod:  Code(VendorVivante, 2),
			want: "VIVANTE(tiling = SUPER_TILED) (0x0600000000000002)",
		},
		{
			name: "unknown vendor",
			mod:  0xff00000000001234,
			want: "unknown (0xff00000000001234)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.mod); got != tt.want {
				t.Errorf("Format(%#x) = %q, want %q", tt.mod, got, tt.want)
			}
		})
	}
}

func TestDecodeIsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		mod := rng.Uint64()
		d := Decode(mod)
		if d.Name == "" {
			t.Fatalf("Decode(%#x) returned an empty name", mod)
		}
		if d.String() == "" {
			t.Fatalf("Decode(%#x).String() is empty", mod)
		}
		if d.Modifier != mod {
			t.Fatalf("Decode(%#x).Modifier = %#x", mod, d.Modifier)
		}
	}
}

func TestVendorDispatchIgnoresLowBits(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for v := 0; v < 256; v++ {
		base := Decode(uint64(v) << 56)
		for i := 0; i < 32; i++ {
			mod := uint64(v)<<56 | rng.Uint64()&(1<<56-1)
			d := Decode(mod)
			if d.Vendor != base.Vendor {
				t.Fatalf("vendor of %#x = %v, want %v", mod, d.Vendor, base.Vendor)
			}
			if _, ok := decoders[d.Vendor]; !ok && d.Name != "unknown" {
				if _, named := basicNames[mod]; !named {
					t.Fatalf("basic fallback for %#x = %q, want unknown", mod, d.Name)
				}
			}
		}
	}
}

func TestUnknownVendorFallsBackToBasic(t *testing.T) {
	for _, mod := range []uint64{0xff00000000000000, 0xffffffffffffffff, 0x4200000000000001, 0x0d00000000000000} {
		d := Decode(mod)
		if d.Name != "unknown" || len(d.Fields) != 0 {
			t.Errorf("Decode(%#x) = %s, want unknown", mod, d)
		}
	}
	if d := Decode(Linear); d.Name != "LINEAR" {
		t.Errorf("Decode(LINEAR) = %s", d)
	}
}

func TestBasicNamesRoundTrip(t *testing.T) {
	for mod, name := range basicNames {
		if _, ok := decoders[VendorOf(mod)]; ok {
			continue
		}
		if got := Decode(mod).String(); got != name {
			t.Errorf("Decode(%#x) = %q, want %q", mod, got, name)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0x0", want: 0},
		{in: "0x0100000000000001", want: 0x0100000000000001},
		{in: "72057594037927937", want: 0x0100000000000001},
		{in: "LINEAR", want: 0},
		{in: "DRM_FORMAT_MOD_LINEAR", want: 0},
		{in: "i915_x_tiled", want: 0x0100000000000001},
		{in: " 0xff ", want: 0xff},
		{in: "", wantErr: true},
		{in: "bogus", wantErr: true},
		{in: "0x1ffffffffffffffff", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	mod := Code(VendorAMD, amdTileVersion.put(amdTileVerGFX9)|
		amdTile.put(amdTileGFX9_64K_S_X)|
		amdDCC.put(1)|
		amdPipeXORBits.put(3))

	data, err := json.Marshal(Decode(mod))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got struct {
		Modifier string         `json:"modifier"`
		Vendor   string         `json:"vendor"`
		Name     string         `json:"name"`
		Fields   map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if got.Vendor != "AMD" || got.Name != "AMD" {
		t.Errorf("vendor/name = %q/%q", got.Vendor, got.Name)
	}
	if got.Modifier != "0x0200000000603901" {
		t.Errorf("modifier = %q", got.Modifier)
	}
	if got.Fields["TILE"] != "GFX9_64K_S_X" {
		t.Errorf("TILE = %v", got.Fields["TILE"])
	}
	if got.Fields["DCC"] != true {
		t.Errorf("DCC = %v", got.Fields["DCC"])
	}
	if got.Fields["PIPE_XOR_BITS"] != float64(3) {
		t.Errorf("PIPE_XOR_BITS = %v", got.Fields["PIPE_XOR_BITS"])
	}
}

func TestMarshalJSONUnknownLayout(t *testing.T) {
	for _, mod := range []uint64{
		Code(VendorNVIDIA, 0),
		Code(VendorARM, armType.put(armTypeMISC)|2),
		Code(VendorARM, armType.put(0x7)|0x1),
	} {
		d := Decode(mod)
		if !d.Unknown || len(d.Fields) != 0 || d.Has(unknown) {
			t.Errorf("Decode(%#x) = %+v, want an unknown layout without fields", mod, d)
		}

		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if got["unknown"] != true {
			t.Errorf("%s: unknown = %v", data, got["unknown"])
		}
		if _, ok := got["fields"]; ok {
			t.Errorf("%s: unexpected fields", data)
		}
	}

	data, err := json.Marshal(Decode(Code(VendorNVIDIA, nvidiaBlockLinear.put(1))))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "unknown") {
		t.Errorf("recognised layout marked unknown: %s", data)
	}
}

func TestMarkdown(t *testing.T) {
	md := Decode(Code(VendorAmlogic, 2)).Markdown()
	for _, want := range []string{"### AMLOGIC_FBC", "| layout | SCATTER |", "| options | 0 |", "**AMLOGIC**"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}

	md = Decode(Code(VendorARM, 1|1<<6)).Markdown()
	if !strings.Contains(md, "| SPARSE | set |") {
		t.Errorf("Markdown() missing flag row:\n%s", md)
	}
}

func TestVendorString(t *testing.T) {
	if got := VendorAmlogic.String(); got != "AMLOGIC" {
		t.Errorf("VendorAmlogic = %q", got)
	}
	if got := Vendor(0xff).String(); got != "0xff" {
		t.Errorf("Vendor(0xff) = %q", got)
	}
}
