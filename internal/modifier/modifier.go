// Package modifier decodes DRM format modifiers.
// A modifier is a 64-bit tag describing a buffer's memory layout. The top
// byte names a vendor and the remaining 56 bits are vendor-private.
package modifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

const unknown = "unknown"

// Kind describes how a field is rendered.
type Kind uint8

const (
	// Flag fields are present-only (e.g. DCC).
	Flag Kind = iota
	// Enum fields carry a label.
	Enum
	// Uint fields carry a small unsigned integer.
	Uint
)

// Field is one named component of a decoded modifier.
type Field struct {
	Name  string
	Kind  Kind
	Label string
	Value uint64
}

func flag(name string) Field                 { return Field{Name: name, Kind: Flag} }
func label(name, value string) Field         { return Field{Name: name, Kind: Enum, Label: value} }
func number(name string, value uint64) Field { return Field{Name: name, Kind: Uint, Value: value} }

// Decoded is the structured interpretation of a modifier.
type Decoded struct {
	Modifier uint64
	Vendor   Vendor
	Name     string
	Fields   []Field
	// Unknown marks a vendor layout the decoder does not recognise.
	Unknown bool

	// compact renders "k=v" instead of "k = v"
	compact bool
}

// Has reports whether a field with the given name was emitted.
func (d Decoded) Has(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// Field returns the named field.
func (d Decoded) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// String renders the decoded modifier as NAME(field = value, flag, ...).
func (d Decoded) String() string {
	if d.Unknown {
		return d.Name + "(" + unknown + ")"
	}
	if len(d.Fields) == 0 {
		return d.Name
	}

	sep := " = "
	if d.compact {
		sep = "="
	}

	parts := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		switch f.Kind {
		case Enum:
			parts = append(parts, f.Name+sep+f.Label)
		case Uint:
			parts = append(parts, fmt.Sprintf("%s%s%d", f.Name, sep, f.Value))
		default:
			parts = append(parts, f.Name)
		}
	}
	return d.Name + "(" + strings.Join(parts, ", ") + ")"
}

// MarshalJSON emits vendor, name and a field map. Flags become booleans.
func (d Decoded) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		switch f.Kind {
		case Enum:
			fields[f.Name] = f.Label
		case Uint:
			fields[f.Name] = f.Value
		default:
			fields[f.Name] = true
		}
	}
	return json.Marshal(struct {
		Modifier string         `json:"modifier"`
		Vendor   string         `json:"vendor"`
		Name     string         `json:"name"`
		Unknown  bool           `json:"unknown,omitempty"`
		Fields   map[string]any `json:"fields,omitempty"`
	}{
		Modifier: hex(d.Modifier),
		Vendor:   d.Vendor.String(),
		Name:     d.Name,
		Unknown:  d.Unknown,
		Fields:   fields,
	})
}

// Markdown renders the decoded fields as a markdown table.
func (d Decoded) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", d.Name)
	fmt.Fprintf(&b, "`%s` vendor **%s**\n\n", hex(d.Modifier), d.Vendor)
	if d.Unknown {
		b.WriteString("Unrecognised layout.\n")
	}
	if len(d.Fields) == 0 {
		return b.String()
	}
	b.WriteString("| Field | Value |\n|---|---|\n")
	for _, f := range d.Fields {
		switch f.Kind {
		case Enum:
			fmt.Fprintf(&b, "| %s | %s |\n", f.Name, f.Label)
		case Uint:
			fmt.Fprintf(&b, "| %s | %d |\n", f.Name, f.Value)
		default:
			fmt.Fprintf(&b, "| %s | set |\n", f.Name)
		}
	}
	return b.String()
}

type decoder func(mod uint64) Decoded

var decoders = map[Vendor]decoder{
	VendorNVIDIA:  decodeNVIDIA,
	VendorAMD:     decodeAMD,
	VendorARM:     decodeARM,
	VendorAmlogic: decodeAmlogic,
	VendorVivante: decodeVivante,
}

// Decode interprets mod. It never fails: unrecognised values decode to
// "unknown" labels.
func Decode(mod uint64) Decoded {
	v := VendorOf(mod)
	var d Decoded
	if dec, ok := decoders[v]; ok {
		d = dec(mod)
	} else {
		d = decodeBasic(mod)
	}
	d.Modifier = mod
	d.Vendor = v
	return d
}

// Format returns the text form followed by the raw value,
// e.g. "LINEAR (0x0000000000000000)".
func Format(mod uint64) string {
	return Decode(mod).String() + " (" + hex(mod) + ")"
}

func hex(mod uint64) string {
	return fmt.Sprintf("0x%016x", mod)
}
