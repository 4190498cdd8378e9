package drm

import "fmt"

// Capabilities queried with DRM_IOCTL_GET_CAP.
const (
	CapDumbBuffer         = 0x1
	CapVblankHighCrtc     = 0x2
	CapDumbPreferredDepth = 0x3
	CapDumbPreferShadow   = 0x4
	CapPrime              = 0x5
	CapTimestampMonotonic = 0x6
	CapAsyncPageFlip      = 0x7
	CapCursorWidth        = 0x8
	CapCursorHeight       = 0x9
	CapAddFB2Modifiers    = 0x10
	CapPageFlipTarget     = 0x11
	CapCrtcInVblankEvent  = 0x12
	CapSyncobj            = 0x13
	CapSyncobjTimeline    = 0x14
)

// Client capabilities set with DRM_IOCTL_SET_CLIENT_CAP.
const (
	ClientCapStereo3D            = 1
	ClientCapUniversalPlanes     = 2
	ClientCapAtomic              = 3
	ClientCapAspectRatio         = 4
	ClientCapWritebackConnectors = 5
)

// NamedCap pairs a capability id with its uAPI name.
type NamedCap struct {
	Name string
	ID   uint64
}

// Caps lists the capabilities reported for every node, in output order.
var Caps = []NamedCap{
	{"DUMB_BUFFER", CapDumbBuffer},
	{"VBLANK_HIGH_CRTC", CapVblankHighCrtc},
	{"DUMB_PREFERRED_DEPTH", CapDumbPreferredDepth},
	{"DUMB_PREFER_SHADOW", CapDumbPreferShadow},
	{"PRIME", CapPrime},
	{"TIMESTAMP_MONOTONIC", CapTimestampMonotonic},
	{"ASYNC_PAGE_FLIP", CapAsyncPageFlip},
	{"CURSOR_WIDTH", CapCursorWidth},
	{"CURSOR_HEIGHT", CapCursorHeight},
	{"ADDFB2_MODIFIERS", CapAddFB2Modifiers},
	{"PAGE_FLIP_TARGET", CapPageFlipTarget},
	{"CRTC_IN_VBLANK_EVENT", CapCrtcInVblankEvent},
	{"SYNCOBJ", CapSyncobj},
	{"SYNCOBJ_TIMELINE", CapSyncobjTimeline},
}

// ClientCaps lists the client capabilities probed for every node.
var ClientCaps = []NamedCap{
	{"STEREO_3D", ClientCapStereo3D},
	{"UNIVERSAL_PLANES", ClientCapUniversalPlanes},
	{"ATOMIC", ClientCapAtomic},
	{"ASPECT_RATIO", ClientCapAspectRatio},
	{"WRITEBACK_CONNECTORS", ClientCapWritebackConnectors},
}

// Property flags (DRM_MODE_PROP_*).
const (
	PropPending      = 1 << 0
	PropRange        = 1 << 1
	PropImmutable    = 1 << 2
	PropEnum         = 1 << 3
	PropBlob         = 1 << 4
	PropBitmask      = 1 << 5
	PropLegacyType   = PropRange | PropEnum | PropBlob | PropBitmask
	PropExtendedType = 0x0000ffc0
	PropObject       = 1 << 6
	PropSignedRange  = 2 << 6
	PropAtomic       = 0x80000000
)

// Object types (DRM_MODE_OBJECT_*).
const (
	ObjectCrtc      = 0xcccccccc
	ObjectConnector = 0xc0c0c0c0
	ObjectEncoder   = 0xe0e0e0e0
	ObjectMode      = 0xdededede
	ObjectProperty  = 0xb0b0b0b0
	ObjectFB        = 0xfbfbfbfb
	ObjectBlob      = 0xbbbbbbbb
	ObjectPlane     = 0xeeeeeeee
)

// fbModifiers is DRM_MODE_FB_MODIFIERS.
const fbModifiers = 1 << 1

// Bus types as reported by libdrm's drmDevice.
const (
	BusPCI      = 0
	BusUSB      = 1
	BusPlatform = 2
	BusHost1x   = 3
)

var busTypeNames = []string{"PCI", "USB", "platform", "host1x"}

// BusTypeName names a bus type.
func BusTypeName(t uint32) string {
	return lookup(busTypeNames, t)
}

var connectorTypeNames = []string{
	"Unknown",
	"VGA",
	"DVI-I",
	"DVI-D",
	"DVI-A",
	"Composite",
	"SVIDEO",
	"LVDS",
	"Component",
	"DIN",
	"DP",
	"HDMI-A",
	"HDMI-B",
	"TV",
	"eDP",
	"Virtual",
	"DSI",
	"DPI",
	"Writeback",
	"SPI",
	"USB",
}

// ConnectorTypeName names a DRM_MODE_CONNECTOR_* value.
func ConnectorTypeName(t uint32) string {
	return lookup(connectorTypeNames, t)
}

// Connector connection states.
const (
	ConnectorConnected    = 1
	ConnectorDisconnected = 2
	ConnectorUnknown      = 3
)

var connectorStatusNames = []string{"", "connected", "disconnected", "unknown"}

// ConnectorStatusName names a connector connection state.
func ConnectorStatusName(s uint32) string {
	return lookup(connectorStatusNames, s)
}

var subpixelNames = []string{
	"", "unknown", "horizontal RGB", "horizontal BGR", "vertical RGB", "vertical BGR", "none",
}

// SubpixelName names a DRM_MODE_SUBPIXEL_* value.
func SubpixelName(s uint32) string {
	return lookup(subpixelNames, s)
}

var encoderTypeNames = []string{
	"none", "DAC", "TMDS", "LVDS", "TVDAC", "virtual", "DSI", "DPMST", "DPI",
}

// EncoderTypeName names a DRM_MODE_ENCODER_* value.
func EncoderTypeName(t uint32) string {
	return lookup(encoderTypeNames, t)
}

// PropertyTypeName names the type bits of a property's flags.
func PropertyTypeName(t uint32) string {
	switch t {
	case PropRange:
		return "range"
	case PropEnum:
		return "enum"
	case PropBlob:
		return "blob"
	case PropBitmask:
		return "bitmask"
	case PropObject:
		return "object"
	case PropSignedRange:
		return "signed range"
	}
	return "unknown"
}

var planeTypeNames = []string{"overlay", "primary", "cursor"}

// PlaneTypeName names the value of a plane's "type" property.
func PlaneTypeName(t uint64) string {
	if t < uint64(len(planeTypeNames)) {
		return planeTypeNames[t]
	}
	return "unknown"
}

func lookup(names []string, v uint32) string {
	if int(v) < len(names) && names[v] != "" {
		return names[v]
	}
	return fmt.Sprintf("unknown (%d)", v)
}
