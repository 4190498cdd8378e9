package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"drminfo/internal/drm"
)

func fixtureReport(t *testing.T) Report {
	t.Helper()
	card := newFakeCard("/dev/dri/card0")
	rep, _ := collectFake(t, context.Background(), map[string]*fakeCard{card.path: card}, card.path)
	return rep
}

func TestWriteJSONLoad(t *testing.T) {
	rep := fixtureReport(t)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, rep); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	node := got["/dev/dri/card0"]
	if node == nil || len(node.Planes) != 1 {
		t.Fatalf("loaded node = %+v", node)
	}
	props := node.Planes[0].Properties
	in := props["IN_FORMATS"]
	if in == nil || len(in.InFormats) != 2 || in.InFormats[1].Modifier != 0x0200000000603901 {
		t.Errorf("IN_FORMATS = %+v", in)
	}
	if p := props["SRC_W"]; p.Integer == nil || *p.Integer != 1920 || p.Range == nil || p.Range.Max != 0xffffffff {
		t.Errorf("SRC_W = %+v", p)
	}
	if p := props["CRTC_X"]; p.Value() != int64(-5) || p.Range == nil || int64(p.Range.Min) != -1<<63 {
		t.Errorf("CRTC_X = %+v", p)
	}
	if p := props["FB_ID"]; p.FB == nil || p.FB.Width != 1920 || p.ObjectType == nil || *p.ObjectType != drm.ObjectFB {
		t.Errorf("FB_ID = %+v", p)
	}
	if p := props["type"]; len(p.Enums) != 3 || p.RawValue != 1 {
		t.Errorf("type = %+v", p)
	}

	crtc := node.CRTCs[0]
	if p := crtc.Properties["MODE_ID"]; p.Mode == nil || p.Mode.Name != "1920x1080" {
		t.Errorf("MODE_ID = %+v", p)
	}
	if p := node.Connectors[0].Properties["PATH"]; p.Path == nil || *p.Path != "mst:52-1" {
		t.Errorf("PATH = %+v", p)
	}
}

func TestPropertyJSONShape(t *testing.T) {
	tests := []struct {
		name string
		prop Property
		want string
	}{
		{
			name: "range with integer data",
			prop: Property{ID: 1, Type: drm.PropRange, RawValue: 65536, Range: &Range{Max: 1<<32 - 1}, Integer: ptr(uint64(1))},
			want: `{"id":1,"flags":0,"type":2,"atomic":false,"immutable":false,"raw_value":65536,"spec":{"min":0,"max":4294967295},"value":65536,"data":1}`,
		},
		{
			name: "signed range",
			prop: Property{ID: 2, Type: drm.PropSignedRange, RawValue: 1<<64 - 1, Range: &Range{Min: 1 << 63, Max: 1<<63 - 1}},
			want: `{"id":2,"flags":0,"type":128,"atomic":false,"immutable":false,"raw_value":18446744073709551615,"spec":{"min":-9223372036854775808,"max":9223372036854775807},"value":-1,"data":null}`,
		},
		{
			name: "enum without entries",
			prop: Property{ID: 3, Type: drm.PropEnum},
			want: `{"id":3,"flags":0,"type":8,"atomic":false,"immutable":false,"raw_value":0,"spec":[],"value":0,"data":null}`,
		},
		{
			name: "blob has no value",
			prop: Property{ID: 4, Type: drm.PropBlob, RawValue: 9, Formats: []uint32{0x34325258}},
			want: `{"id":4,"flags":0,"type":16,"atomic":false,"immutable":false,"raw_value":9,"spec":null,"value":null,"data":[875713112]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(&tt.prop)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	for _, in := range []string{`[`, `{"/dev/dri/card0": {"planes": [{"properties": {"x": {"type": 16, "data": 5}}}]}}`} {
		if _, err := Load(strings.NewReader(in)); err == nil {
			t.Errorf("Load(%q) succeeded, want error", in)
		}
	}
}

func TestLoadDropsNullNodes(t *testing.T) {
	rep, err := Load(strings.NewReader(`{"/dev/dri/card0": null}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rep) != 0 {
		t.Errorf("Load() = %v, want empty", rep)
	}
}

func TestWriteYAML(t *testing.T) {
	rep := fixtureReport(t)
	var buf bytes.Buffer
	if err := WriteYAML(&buf, rep); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}

	var doc map[string]map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	node, ok := doc["/dev/dri/card0"]
	if !ok {
		t.Fatalf("YAML keys = %v", doc)
	}
	driver, _ := node["driver"].(map[string]any)
	if driver["name"] != "fake" {
		t.Errorf("driver = %v", driver)
	}
	if !strings.Contains(buf.String(), "raw_value: 125829120") {
		t.Errorf("SRC_W raw value missing from YAML:\n%s", buf.String())
	}
}

func TestHDRMetadataJSON(t *testing.T) {
	eotf := uint8(2)
	tests := []struct {
		name    string
		meta    drm.HDRMetadata
		present []string
		absent  []string
	}{
		{
			name: "static type 1 keeps zero fields",
			meta: drm.HDRMetadata{Type: 0, EOTF: &eotf, MaxDisplayMasteringLuminance: 1000},
			present: []string{
				`"eotf":2`,
				`"max_display_mastering_luminance":1000`,
				`"min_display_mastering_luminance":0`,
				`"max_cll":0`,
				`"max_fall":0`,
			},
		},
		{
			name:    "other types carry only the type",
			meta:    drm.HDRMetadata{Type: 7},
			present: []string{`"type":7`},
			absent:  []string{"eotf", "white_point", "max_cll", "max_fall", "mastering"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Report{"/dev/dri/card0": &Node{
				Connectors: []Connector{{
					ID: 50,
					Properties: Properties{"HDR_OUTPUT_METADATA": &Property{
						ID:       30,
						Type:     drm.PropBlob,
						RawValue: 300,
						HDR:      hdrFrom(&tt.meta),
					}},
				}},
			}}
			var buf bytes.Buffer
			if err := WriteJSON(&buf, rep); err != nil {
				t.Fatalf("WriteJSON() error = %v", err)
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, buf.Bytes()); err != nil {
				t.Fatal(err)
			}
			out := compact.String()
			for _, want := range tt.present {
				if !strings.Contains(out, want) {
					t.Errorf("output lacks %s:\n%s", want, out)
				}
			}
			for _, key := range tt.absent {
				if strings.Contains(out, key) {
					t.Errorf("output has %q:\n%s", key, out)
				}
			}

			got, err := Load(&buf)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			hdr := got["/dev/dri/card0"].Connectors[0].Properties["HDR_OUTPUT_METADATA"].HDR
			if hdr == nil || hdr.Type != tt.meta.Type {
				t.Fatalf("loaded HDR = %+v", hdr)
			}
			if tt.meta.EOTF != nil && (hdr.MaxCLL == nil || *hdr.MaxCLL != 0) {
				t.Errorf("loaded MaxCLL = %v", hdr.MaxCLL)
			}
		})
	}
}
