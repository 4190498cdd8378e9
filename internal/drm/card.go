package drm

import (
	"bytes"
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Version is the driver identification from DRM_IOCTL_VERSION.
type Version struct {
	Major int32
	Minor int32
	Patch int32
	Name  string
	Date  string
	Desc  string
}

// Resources lists the KMS objects of a card.
type Resources struct {
	FBs        []uint32
	CRTCs      []uint32
	Connectors []uint32
	Encoders   []uint32
	MinWidth   uint32
	MaxWidth   uint32
	MinHeight  uint32
	MaxHeight  uint32
}

// Connector is a display sink attachment point.
type Connector struct {
	ID        uint32
	Type      uint32
	TypeID    uint32
	Status    uint32
	PhyWidth  uint32
	PhyHeight uint32
	Subpixel  uint32
	EncoderID uint32
	Encoders  []uint32
	Modes     []Mode
}

// Encoder converts CRTC output for a connector.
type Encoder struct {
	ID             uint32
	Type           uint32
	CrtcID         uint32
	PossibleCrtcs  uint32
	PossibleClones uint32
}

// Crtc is a scanout engine. Mode is nil when no mode is set.
type Crtc struct {
	ID        uint32
	FBID      uint32
	X         uint32
	Y         uint32
	GammaSize uint32
	Mode      *Mode
}

// Plane is a scanout layer. Formats are fourcc codes.
type Plane struct {
	ID            uint32
	CrtcID        uint32
	FBID          uint32
	PossibleCrtcs uint32
	GammaSize     uint32
	Formats       []uint32
}

// PropertyEnum is one named value of an enum or bitmask property.
type PropertyEnum struct {
	Name  string
	Value uint64
}

// Property describes a KMS property.
type Property struct {
	ID     uint32
	Name   string
	Flags  uint32
	Values []uint64
	Enums  []PropertyEnum
}

// Type returns the legacy or extended type bits.
func (p *Property) Type() uint32 {
	return p.Flags & (PropLegacyType | PropExtendedType)
}

func (p *Property) Atomic() bool {
	return p.Flags&PropAtomic != 0
}

func (p *Property) Immutable() bool {
	return p.Flags&PropImmutable != 0
}

// PropertyValue is a property id attached to an object with its current value.
type PropertyValue struct {
	ID    uint32
	Value uint64
}

// FBPlane is one memory plane of a framebuffer.
type FBPlane struct {
	Offset uint32
	Pitch  uint32
}

// Framebuffer is the state returned by GETFB2, or by GETFB when Legacy is set.
// Pitch, BPP and Depth are only filled in legacy mode.
type Framebuffer struct {
	ID          uint32
	Width       uint32
	Height      uint32
	Format      uint32
	Modifier    uint64
	HasModifier bool
	Planes      []FBPlane
	Legacy      bool
	Pitch       uint32
	BPP         uint32
	Depth       uint32
}

// Version returns the driver name, version and description.
func (c *Card) Version() (*Version, error) {
	var v sysVersion
	if err := c.ioctl("version", ioctlVersion, unsafe.Pointer(&v)); err != nil {
		return nil, err
	}
	name := make([]byte, v.nameLen)
	date := make([]byte, v.dateLen)
	desc := make([]byte, v.descLen)
	v.name = uintptr(ptr(name))
	v.date = uintptr(ptr(date))
	v.desc = uintptr(ptr(desc))
	err := c.ioctl("version", ioctlVersion, unsafe.Pointer(&v))
	keepAlive(name, date, desc)
	if err != nil {
		return nil, err
	}
	return &Version{
		Major: v.major,
		Minor: v.minor,
		Patch: v.patch,
		Name:  cstring(name),
		Date:  cstring(date),
		Desc:  cstring(desc),
	}, nil
}

// Cap returns the value of a DRM_CAP_* capability.
func (c *Card) Cap(id uint64) (uint64, error) {
	arg := sysGetCap{capability: id}
	if err := c.ioctl("get cap", ioctlGetCap, unsafe.Pointer(&arg)); err != nil {
		return 0, err
	}
	return arg.value, nil
}

// SetClientCap enables or disables a DRM_CLIENT_CAP_* capability.
func (c *Card) SetClientCap(id, value uint64) error {
	arg := sysSetClientCap{capability: id, value: value}
	return c.ioctl("set client cap", ioctlSetClientCap, unsafe.Pointer(&arg))
}

// Resources returns the card's object ids and framebuffer size limits.
func (c *Card) Resources() (*Resources, error) {
	var arg sysCardRes
	if err := c.ioctl("get resources", ioctlModeGetResources, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	for {
		res := &Resources{
			FBs:        make([]uint32, arg.countFBs),
			CRTCs:      make([]uint32, arg.countCrtcs),
			Connectors: make([]uint32, arg.countConnectors),
			Encoders:   make([]uint32, arg.countEncoders),
		}
		arg.fbIDPtr = ptr(res.FBs)
		arg.crtcIDPtr = ptr(res.CRTCs)
		arg.connectorIDPtr = ptr(res.Connectors)
		arg.encoderIDPtr = ptr(res.Encoders)
		err := c.ioctl("get resources", ioctlModeGetResources, unsafe.Pointer(&arg))
		keepAlive(res.FBs, res.CRTCs, res.Connectors, res.Encoders)
		if err != nil {
			return nil, err
		}
		// Objects were hotplugged between the two calls.
		if int(arg.countFBs) > len(res.FBs) ||
			int(arg.countCrtcs) > len(res.CRTCs) ||
			int(arg.countConnectors) > len(res.Connectors) ||
			int(arg.countEncoders) > len(res.Encoders) {
			continue
		}
		res.FBs = res.FBs[:arg.countFBs]
		res.CRTCs = res.CRTCs[:arg.countCrtcs]
		res.Connectors = res.Connectors[:arg.countConnectors]
		res.Encoders = res.Encoders[:arg.countEncoders]
		res.MinWidth = arg.minWidth
		res.MaxWidth = arg.maxWidth
		res.MinHeight = arg.minHeight
		res.MaxHeight = arg.maxHeight
		return res, nil
	}
}

// Connector returns the connector's current state without forcing a probe
// of the sink. Passing a non-zero mode count on the first call keeps the
// kernel from re-reading EDID.
func (c *Card) Connector(id uint32) (*Connector, error) {
	stack := make([]sysModeInfo, 1)
	arg := sysGetConnector{
		connectorID: id,
		countModes:  1,
		modesPtr:    ptr(stack),
	}
	err := c.ioctl("get connector", ioctlModeGetConnector, unsafe.Pointer(&arg))
	keepAlive(stack)
	if err != nil {
		return nil, err
	}
	for {
		modes := make([]sysModeInfo, arg.countModes)
		encoders := make([]uint32, arg.countEncoders)
		props := make([]uint32, arg.countProps)
		values := make([]uint64, arg.countProps)
		arg.modesPtr = ptr(modes)
		if len(modes) == 0 {
			arg.countModes = 1
			arg.modesPtr = ptr(stack)
		}
		arg.encodersPtr = ptr(encoders)
		arg.propsPtr = ptr(props)
		arg.propValuesPtr = ptr(values)
		err := c.ioctl("get connector", ioctlModeGetConnector, unsafe.Pointer(&arg))
		keepAlive(stack, modes, encoders, props, values)
		if err != nil {
			return nil, err
		}
		if int(arg.countModes) > len(modes) ||
			int(arg.countEncoders) > len(encoders) ||
			int(arg.countProps) > len(props) {
			continue
		}
		conn := &Connector{
			ID:        arg.connectorID,
			Type:      arg.connectorType,
			TypeID:    arg.connectorTypeID,
			Status:    arg.connection,
			PhyWidth:  arg.mmWidth,
			PhyHeight: arg.mmHeight,
			Subpixel:  arg.subpixel,
			EncoderID: arg.encoderID,
			Encoders:  encoders[:arg.countEncoders],
			Modes:     make([]Mode, 0, arg.countModes),
		}
		for _, m := range modes[:arg.countModes] {
			conn.Modes = append(conn.Modes, m.mode())
		}
		return conn, nil
	}
}

func (c *Card) Encoder(id uint32) (*Encoder, error) {
	arg := sysGetEncoder{encoderID: id}
	if err := c.ioctl("get encoder", ioctlModeGetEncoder, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	return &Encoder{
		ID:             arg.encoderID,
		Type:           arg.encoderType,
		CrtcID:         arg.crtcID,
		PossibleCrtcs:  arg.possibleCrtcs,
		PossibleClones: arg.possibleClones,
	}, nil
}

func (c *Card) Crtc(id uint32) (*Crtc, error) {
	arg := sysCrtc{crtcID: id}
	if err := c.ioctl("get crtc", ioctlModeGetCrtc, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	crtc := &Crtc{
		ID:        arg.crtcID,
		FBID:      arg.fbID,
		X:         arg.x,
		Y:         arg.y,
		GammaSize: arg.gammaSize,
	}
	if arg.modeValid != 0 {
		m := arg.mode.mode()
		crtc.Mode = &m
	}
	return crtc, nil
}

// PlaneResources returns the ids of all planes. Without the universal
// planes client cap only overlay planes are listed.
func (c *Card) PlaneResources() ([]uint32, error) {
	var arg sysGetPlaneRes
	if err := c.ioctl("get plane resources", ioctlModeGetPlaneRes, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	for {
		ids := make([]uint32, arg.countPlanes)
		arg.planeIDPtr = ptr(ids)
		err := c.ioctl("get plane resources", ioctlModeGetPlaneRes, unsafe.Pointer(&arg))
		keepAlive(ids)
		if err != nil {
			return nil, err
		}
		if int(arg.countPlanes) > len(ids) {
			continue
		}
		return ids[:arg.countPlanes], nil
	}
}

func (c *Card) Plane(id uint32) (*Plane, error) {
	arg := sysGetPlane{planeID: id}
	if err := c.ioctl("get plane", ioctlModeGetPlane, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	for {
		formats := make([]uint32, arg.countFormatTypes)
		arg.formatTypePtr = ptr(formats)
		err := c.ioctl("get plane", ioctlModeGetPlane, unsafe.Pointer(&arg))
		keepAlive(formats)
		if err != nil {
			return nil, err
		}
		if int(arg.countFormatTypes) > len(formats) {
			continue
		}
		return &Plane{
			ID:            arg.planeID,
			CrtcID:        arg.crtcID,
			FBID:          arg.fbID,
			PossibleCrtcs: arg.possibleCrtcs,
			GammaSize:     arg.gammaSize,
			Formats:       formats[:arg.countFormatTypes],
		}, nil
	}
}

// ObjectProperties returns the properties attached to an object, in kernel
// order. objType is one of the Object* constants.
func (c *Card) ObjectProperties(id, objType uint32) ([]PropertyValue, error) {
	arg := sysObjGetProperties{objID: id, objType: objType}
	if err := c.ioctl("get object properties", ioctlModeObjGetProps, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	for {
		props := make([]uint32, arg.countProps)
		values := make([]uint64, arg.countProps)
		arg.propsPtr = ptr(props)
		arg.propValuesPtr = ptr(values)
		err := c.ioctl("get object properties", ioctlModeObjGetProps, unsafe.Pointer(&arg))
		keepAlive(props, values)
		if err != nil {
			return nil, err
		}
		if int(arg.countProps) > len(props) {
			continue
		}
		out := make([]PropertyValue, arg.countProps)
		for i := range out {
			out[i] = PropertyValue{ID: props[i], Value: values[i]}
		}
		return out, nil
	}
}

// Property returns a property's name, flags and value specification. Enum
// entries are only fetched for enum and bitmask properties.
func (c *Card) Property(id uint32) (*Property, error) {
	arg := sysGetProperty{propID: id}
	if err := c.ioctl("get property", ioctlModeGetProperty, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	withEnums := arg.flags&(PropEnum|PropBitmask) != 0
	for {
		values := make([]uint64, arg.countValues)
		var enums []sysPropertyEnum
		if withEnums {
			enums = make([]sysPropertyEnum, arg.countEnumBlobs)
		} else {
			arg.countEnumBlobs = 0
		}
		arg.valuesPtr = ptr(values)
		arg.enumBlobPtr = ptr(enums)
		err := c.ioctl("get property", ioctlModeGetProperty, unsafe.Pointer(&arg))
		keepAlive(values, enums)
		if err != nil {
			return nil, err
		}
		if int(arg.countValues) > len(values) ||
			(withEnums && int(arg.countEnumBlobs) > len(enums)) {
			continue
		}
		p := &Property{
			ID:     arg.propID,
			Name:   cstring(arg.name[:]),
			Flags:  arg.flags,
			Values: values[:arg.countValues],
		}
		if withEnums {
			for _, e := range enums[:arg.countEnumBlobs] {
				p.Enums = append(p.Enums, PropertyEnum{Name: cstring(e.name[:]), Value: e.value})
			}
		}
		return p, nil
	}
}

// PropertyBlob returns the contents of a blob property value.
func (c *Card) PropertyBlob(id uint32) ([]byte, error) {
	arg := sysGetBlob{blobID: id}
	if err := c.ioctl("get property blob", ioctlModeGetPropBlob, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	data := make([]byte, arg.length)
	arg.data = ptr(data)
	err := c.ioctl("get property blob", ioctlModeGetPropBlob, unsafe.Pointer(&arg))
	keepAlive(data)
	if err != nil {
		return nil, err
	}
	return data[:min(int(arg.length), len(data))], nil
}

// Framebuffer returns a framebuffer's layout. GETFB2 is tried first; kernels
// without it answer EINVAL and the legacy GETFB result is returned instead.
func (c *Card) Framebuffer(id uint32) (*Framebuffer, error) {
	fb2 := sysFBCmd2{fbID: id}
	err := c.ioctl("get fb2", ioctlModeGetFB2, unsafe.Pointer(&fb2))
	if err == nil {
		fb := &Framebuffer{
			ID:     fb2.fbID,
			Width:  fb2.width,
			Height: fb2.height,
			Format: fb2.pixelFormat,
		}
		if fb2.flags&fbModifiers != 0 {
			fb.Modifier = fb2.modifier[0]
			fb.HasModifier = true
		}
		for i, pitch := range fb2.pitches {
			if pitch == 0 {
				continue
			}
			fb.Planes = append(fb.Planes, FBPlane{Offset: fb2.offsets[i], Pitch: pitch})
		}
		return fb, nil
	}
	if !errors.Is(err, unix.EINVAL) {
		return nil, err
	}

	fb1 := sysFBCmd{fbID: id}
	if err := c.ioctl("get fb", ioctlModeGetFB, unsafe.Pointer(&fb1)); err != nil {
		return nil, err
	}
	return &Framebuffer{
		ID:     fb1.fbID,
		Width:  fb1.width,
		Height: fb1.height,
		Legacy: true,
		Pitch:  fb1.pitch,
		BPP:    fb1.bpp,
		Depth:  fb1.depth,
	}, nil
}

// cstring trims b at the first NUL.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
