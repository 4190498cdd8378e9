// Package report models the DRM state of one or more nodes as a tree of
// plain values, and renders it as JSON, YAML, a styled text tree or
// markdown. The JSON layout is compatible with drm_info's.
package report

import (
	"encoding/json"
	"fmt"

	"drminfo/internal/drm"
)

// Report maps node paths such as /dev/dri/card0 to their state.
type Report map[string]*Node

type Node struct {
	Driver     *Driver     `json:"driver" yaml:"driver"`
	Device     *Device     `json:"device" yaml:"device"`
	FBSize     FBSize      `json:"fb_size" yaml:"fb_size"`
	Connectors []Connector `json:"connectors" yaml:"connectors"`
	Encoders   []Encoder   `json:"encoders" yaml:"encoders"`
	CRTCs      []CRTC      `json:"crtcs" yaml:"crtcs"`
	Planes     []Plane     `json:"planes" yaml:"planes"`
}

type Driver struct {
	Name       string             `json:"name" yaml:"name"`
	Desc       string             `json:"desc" yaml:"desc"`
	Version    DriverVersion      `json:"version" yaml:"version"`
	Kernel     *Kernel            `json:"kernel" yaml:"kernel"`
	ClientCaps map[string]bool    `json:"client_caps" yaml:"client_caps"`
	Caps       map[string]*uint64 `json:"caps" yaml:"caps"`
}

type DriverVersion struct {
	Major int32  `json:"major" yaml:"major"`
	Minor int32  `json:"minor" yaml:"minor"`
	Patch int32  `json:"patch" yaml:"patch"`
	Date  string `json:"date" yaml:"date"`
}

type Kernel struct {
	Sysname string `json:"sysname" yaml:"sysname"`
	Release string `json:"release" yaml:"release"`
	Version string `json:"version" yaml:"version"`
}

// Device is the bus identity of a node. DeviceData and BusData carry the
// fields of whichever bus the device sits on.
type Device struct {
	AvailableNodes uint32      `json:"available_nodes" yaml:"available_nodes"`
	BusType        uint32      `json:"bus_type" yaml:"bus_type"`
	KernelDriver   string      `json:"kernel_driver,omitempty" yaml:"kernel_driver,omitempty"`
	DeviceData     *DeviceData `json:"device_data" yaml:"device_data"`
	BusData        *BusData    `json:"bus_data" yaml:"bus_data"`
}

type DeviceData struct {
	Vendor          *uint32  `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Device          *uint32  `json:"device,omitempty" yaml:"device,omitempty"`
	SubsystemVendor *uint32  `json:"subsystem_vendor,omitempty" yaml:"subsystem_vendor,omitempty"`
	SubsystemDevice *uint32  `json:"subsystem_device,omitempty" yaml:"subsystem_device,omitempty"`
	Product         *uint32  `json:"product,omitempty" yaml:"product,omitempty"`
	Compatible      []string `json:"compatible,omitempty" yaml:"compatible,omitempty"`
}

type BusData struct {
	Domain   *uint32 `json:"domain,omitempty" yaml:"domain,omitempty"`
	Bus      *uint32 `json:"bus,omitempty" yaml:"bus,omitempty"`
	Slot     *uint32 `json:"slot,omitempty" yaml:"slot,omitempty"`
	Function *uint32 `json:"function,omitempty" yaml:"function,omitempty"`
	Device   *uint32 `json:"device,omitempty" yaml:"device,omitempty"`
	FullName string  `json:"fullname,omitempty" yaml:"fullname,omitempty"`
}

type FBSize struct {
	MinWidth  uint32 `json:"min_width" yaml:"min_width"`
	MaxWidth  uint32 `json:"max_width" yaml:"max_width"`
	MinHeight uint32 `json:"min_height" yaml:"min_height"`
	MaxHeight uint32 `json:"max_height" yaml:"max_height"`
}

type Connector struct {
	ID         uint32     `json:"id" yaml:"id"`
	Type       uint32     `json:"type" yaml:"type"`
	Status     uint32     `json:"status" yaml:"status"`
	PhyWidth   uint32     `json:"phy_width" yaml:"phy_width"`
	PhyHeight  uint32     `json:"phy_height" yaml:"phy_height"`
	Subpixel   uint32     `json:"subpixel" yaml:"subpixel"`
	EncoderID  uint32     `json:"encoder_id" yaml:"encoder_id"`
	Encoders   []uint32   `json:"encoders" yaml:"encoders"`
	Modes      []Mode     `json:"modes" yaml:"modes"`
	Properties Properties `json:"properties" yaml:"properties"`
}

type Encoder struct {
	ID             uint32 `json:"id" yaml:"id"`
	Type           uint32 `json:"type" yaml:"type"`
	CrtcID         uint32 `json:"crtc_id" yaml:"crtc_id"`
	PossibleCrtcs  uint32 `json:"possible_crtcs" yaml:"possible_crtcs"`
	PossibleClones uint32 `json:"possible_clones" yaml:"possible_clones"`
}

type CRTC struct {
	ID         uint32     `json:"id" yaml:"id"`
	FBID       uint32     `json:"fb_id" yaml:"fb_id"`
	X          uint32     `json:"x" yaml:"x"`
	Y          uint32     `json:"y" yaml:"y"`
	Mode       *Mode      `json:"mode" yaml:"mode"`
	GammaSize  uint32     `json:"gamma_size" yaml:"gamma_size"`
	Properties Properties `json:"properties" yaml:"properties"`
}

type Plane struct {
	ID            uint32       `json:"id" yaml:"id"`
	PossibleCrtcs uint32       `json:"possible_crtcs" yaml:"possible_crtcs"`
	CrtcID        uint32       `json:"crtc_id" yaml:"crtc_id"`
	FBID          uint32       `json:"fb_id" yaml:"fb_id"`
	GammaSize     uint32       `json:"gamma_size" yaml:"gamma_size"`
	FB            *Framebuffer `json:"fb" yaml:"fb"`
	Formats       []uint32     `json:"formats" yaml:"formats"`
	Properties    Properties   `json:"properties" yaml:"properties"`
}

type Mode struct {
	Clock      uint32 `json:"clock" yaml:"clock"`
	HDisplay   uint16 `json:"hdisplay" yaml:"hdisplay"`
	HSyncStart uint16 `json:"hsync_start" yaml:"hsync_start"`
	HSyncEnd   uint16 `json:"hsync_end" yaml:"hsync_end"`
	HTotal     uint16 `json:"htotal" yaml:"htotal"`
	HSkew      uint16 `json:"hskew" yaml:"hskew"`
	VDisplay   uint16 `json:"vdisplay" yaml:"vdisplay"`
	VSyncStart uint16 `json:"vsync_start" yaml:"vsync_start"`
	VSyncEnd   uint16 `json:"vsync_end" yaml:"vsync_end"`
	VTotal     uint16 `json:"vtotal" yaml:"vtotal"`
	VScan      uint16 `json:"vscan" yaml:"vscan"`
	VRefresh   uint32 `json:"vrefresh" yaml:"vrefresh"`
	Flags      uint32 `json:"flags" yaml:"flags"`
	Type       uint32 `json:"type" yaml:"type"`
	Name       string `json:"name" yaml:"name"`
}

func modeFrom(m drm.Mode) Mode {
	return Mode(m)
}

// Framebuffer holds GETFB2 state, or the legacy pitch/bpp/depth triple when
// only GETFB is available.
type Framebuffer struct {
	ID       uint32    `json:"id" yaml:"id"`
	Width    uint32    `json:"width" yaml:"width"`
	Height   uint32    `json:"height" yaml:"height"`
	Format   *uint32   `json:"format,omitempty" yaml:"format,omitempty"`
	Modifier *uint64   `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	Planes   []FBPlane `json:"planes,omitempty" yaml:"planes,omitempty"`
	Pitch    *uint32   `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	BPP      *uint32   `json:"bpp,omitempty" yaml:"bpp,omitempty"`
	Depth    *uint32   `json:"depth,omitempty" yaml:"depth,omitempty"`
}

type FBPlane struct {
	Offset uint32 `json:"offset" yaml:"offset"`
	Pitch  uint32 `json:"pitch" yaml:"pitch"`
}

func framebufferFrom(fb *drm.Framebuffer) *Framebuffer {
	out := &Framebuffer{ID: fb.ID, Width: fb.Width, Height: fb.Height}
	if fb.Legacy {
		out.Pitch, out.BPP, out.Depth = ptr(fb.Pitch), ptr(fb.BPP), ptr(fb.Depth)
		return out
	}
	out.Format = ptr(fb.Format)
	if fb.HasModifier {
		out.Modifier = ptr(fb.Modifier)
	}
	out.Planes = []FBPlane{}
	for _, p := range fb.Planes {
		out.Planes = append(out.Planes, FBPlane(p))
	}
	return out
}

// InFormat is one entry of a plane's IN_FORMATS blob.
type InFormat struct {
	Modifier uint64   `json:"modifier" yaml:"modifier"`
	Formats  []uint32 `json:"formats" yaml:"formats"`
}

type Chromaticity struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// HDRMetadata is the decoded HDR_OUTPUT_METADATA blob of a connector. Only
// static metadata type 1 carries the fields after Type; for that type they
// are always present, zero included.
type HDRMetadata struct {
	Type                         uint32                  `json:"type" yaml:"type"`
	EOTF                         *uint8                  `json:"eotf,omitempty" yaml:"eotf,omitempty"`
	DisplayPrimaries             map[string]Chromaticity `json:"display_primaries,omitempty" yaml:"display_primaries,omitempty"`
	WhitePoint                   *Chromaticity           `json:"white_point,omitempty" yaml:"white_point,omitempty"`
	MaxDisplayMasteringLuminance *uint16                 `json:"max_display_mastering_luminance,omitempty" yaml:"max_display_mastering_luminance,omitempty"`
	MinDisplayMasteringLuminance *float64                `json:"min_display_mastering_luminance,omitempty" yaml:"min_display_mastering_luminance,omitempty"`
	MaxCLL                       *uint16                 `json:"max_cll,omitempty" yaml:"max_cll,omitempty"`
	MaxFALL                      *uint16                 `json:"max_fall,omitempty" yaml:"max_fall,omitempty"`
}

func hdrFrom(m *drm.HDRMetadata) *HDRMetadata {
	out := &HDRMetadata{Type: m.Type, EOTF: m.EOTF}
	if m.EOTF == nil {
		return out
	}
	out.DisplayPrimaries = map[string]Chromaticity{
		"r": Chromaticity(m.DisplayPrimaries[0]),
		"g": Chromaticity(m.DisplayPrimaries[1]),
		"b": Chromaticity(m.DisplayPrimaries[2]),
	}
	wp := Chromaticity(m.WhitePoint)
	out.WhitePoint = &wp
	out.MaxDisplayMasteringLuminance = &m.MaxDisplayMasteringLuminance
	out.MinDisplayMasteringLuminance = &m.MinDisplayMasteringLuminance
	out.MaxCLL = &m.MaxCLL
	out.MaxFALL = &m.MaxFALL
	return out
}

// Properties maps property names to their state.
type Properties map[string]*Property

// Range is the spec of a range or signed range property. Signed bounds are
// stored as their two's complement bit pattern.
type Range struct {
	Min uint64
	Max uint64
}

type Enum struct {
	Name  string `json:"name" yaml:"name"`
	Value uint64 `json:"value" yaml:"value"`
}

// Property is one KMS property of a connector, CRTC or plane. The spec is
// one of Range, Enums or ObjectType, chosen by Type. At most one of the
// decoded data fields is set.
type Property struct {
	ID        uint32
	Flags     uint32
	Type      uint32
	Atomic    bool
	Immutable bool
	RawValue  uint64

	Range      *Range
	Enums      []Enum
	ObjectType *uint64

	InFormats []InFormat
	Mode      *Mode
	Formats   []uint32
	Path      *string
	HDR       *HDRMetadata
	Integer   *uint64
	FB        *Framebuffer
}

// propertyWire is the serialized shape of a Property.
type propertyWire struct {
	ID        uint32 `json:"id" yaml:"id"`
	Flags     uint32 `json:"flags" yaml:"flags"`
	Type      uint32 `json:"type" yaml:"type"`
	Atomic    bool   `json:"atomic" yaml:"atomic"`
	Immutable bool   `json:"immutable" yaml:"immutable"`
	RawValue  uint64 `json:"raw_value" yaml:"raw_value"`
	Spec      any    `json:"spec" yaml:"spec"`
	Value     any    `json:"value" yaml:"value"`
	Data      any    `json:"data" yaml:"data"`
}

type unsignedRange struct {
	Min uint64 `json:"min" yaml:"min"`
	Max uint64 `json:"max" yaml:"max"`
}

type signedRange struct {
	Min int64 `json:"min" yaml:"min"`
	Max int64 `json:"max" yaml:"max"`
}

// Value returns the current value in its natural Go type: int64 for signed
// ranges, nil for blobs and unknown types, uint64 otherwise.
func (p *Property) Value() any {
	switch p.Type {
	case drm.PropRange, drm.PropEnum, drm.PropBitmask, drm.PropObject:
		return p.RawValue
	case drm.PropSignedRange:
		return int64(p.RawValue)
	}
	return nil
}

func (p *Property) spec() any {
	switch {
	case p.Range != nil && p.Type == drm.PropSignedRange:
		return signedRange{Min: int64(p.Range.Min), Max: int64(p.Range.Max)}
	case p.Range != nil:
		return unsignedRange{Min: p.Range.Min, Max: p.Range.Max}
	case p.Type == drm.PropEnum || p.Type == drm.PropBitmask:
		if p.Enums == nil {
			return []Enum{}
		}
		return p.Enums
	case p.ObjectType != nil:
		return *p.ObjectType
	}
	return nil
}

func (p *Property) data() any {
	switch {
	case p.InFormats != nil:
		return p.InFormats
	case p.Mode != nil:
		return p.Mode
	case p.Formats != nil:
		return p.Formats
	case p.Path != nil:
		return *p.Path
	case p.HDR != nil:
		return p.HDR
	case p.Integer != nil:
		return *p.Integer
	case p.FB != nil:
		return p.FB
	}
	return nil
}

func (p *Property) wire() propertyWire {
	return propertyWire{
		ID:        p.ID,
		Flags:     p.Flags,
		Type:      p.Type,
		Atomic:    p.Atomic,
		Immutable: p.Immutable,
		RawValue:  p.RawValue,
		Spec:      p.spec(),
		Value:     p.Value(),
		Data:      p.data(),
	}
}

func (p *Property) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.wire())
}

func (p *Property) MarshalYAML() (any, error) {
	return p.wire(), nil
}

// JSONSchemaAlias describes Property by its serialized shape.
func (Property) JSONSchemaAlias() any {
	return propertyWire{}
}

// UnmarshalJSON restores a Property, picking the spec and data shapes from
// the property type and the JSON value kinds.
func (p *Property) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID        uint32          `json:"id"`
		Flags     uint32          `json:"flags"`
		Type      uint32          `json:"type"`
		Atomic    bool            `json:"atomic"`
		Immutable bool            `json:"immutable"`
		RawValue  uint64          `json:"raw_value"`
		Spec      json.RawMessage `json:"spec"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = Property{
		ID:        aux.ID,
		Flags:     aux.Flags,
		Type:      aux.Type,
		Atomic:    aux.Atomic,
		Immutable: aux.Immutable,
		RawValue:  aux.RawValue,
	}
	if err := p.unmarshalSpec(aux.Spec); err != nil {
		return fmt.Errorf("property %d spec: %w", p.ID, err)
	}
	if err := p.unmarshalData(aux.Data); err != nil {
		return fmt.Errorf("property %d data: %w", p.ID, err)
	}
	return nil
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || string(b) == "null"
}

func (p *Property) unmarshalSpec(b json.RawMessage) error {
	if isNull(b) {
		return nil
	}
	switch p.Type {
	case drm.PropRange:
		var r unsignedRange
		if err := json.Unmarshal(b, &r); err != nil {
			return err
		}
		p.Range = &Range{Min: r.Min, Max: r.Max}
	case drm.PropSignedRange:
		var r signedRange
		if err := json.Unmarshal(b, &r); err != nil {
			return err
		}
		p.Range = &Range{Min: uint64(r.Min), Max: uint64(r.Max)}
	case drm.PropEnum, drm.PropBitmask:
		p.Enums = []Enum{}
		return json.Unmarshal(b, &p.Enums)
	case drm.PropObject:
		var t uint64
		if err := json.Unmarshal(b, &t); err != nil {
			return err
		}
		p.ObjectType = &t
	}
	return nil
}

func (p *Property) unmarshalData(b json.RawMessage) error {
	if isNull(b) {
		return nil
	}
	switch p.Type {
	case drm.PropRange:
		return json.Unmarshal(b, &p.Integer)
	case drm.PropObject:
		return json.Unmarshal(b, &p.FB)
	case drm.PropBlob:
	default:
		return nil
	}

	switch b[0] {
	case '"':
		return json.Unmarshal(b, &p.Path)
	case '[':
		var probe []json.RawMessage
		if err := json.Unmarshal(b, &probe); err != nil {
			return err
		}
		if len(probe) > 0 && probe[0][0] == '{' {
			return json.Unmarshal(b, &p.InFormats)
		}
		p.Formats = []uint32{}
		return json.Unmarshal(b, &p.Formats)
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(b, &probe); err != nil {
			return err
		}
		if _, ok := probe["clock"]; ok {
			return json.Unmarshal(b, &p.Mode)
		}
		return json.Unmarshal(b, &p.HDR)
	}
	return fmt.Errorf("unexpected blob data %.20q", b)
}

func ptr[T any](v T) *T {
	return &v
}
