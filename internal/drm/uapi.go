package drm

// Mirrors of the structs in include/uapi/drm/drm.h and drm_mode.h. Field
// order and padding follow the kernel layout on 64-bit targets.

const (
	displayModeLen = 32
	propNameLen    = 32
)

type sysVersion struct {
	major   int32
	minor   int32
	patch   int32
	nameLen uintptr
	name    uintptr
	dateLen uintptr
	date    uintptr
	descLen uintptr
	desc    uintptr
}

type sysGetCap struct {
	capability uint64
	value      uint64
}

type sysSetClientCap struct {
	capability uint64
	value      uint64
}

type sysCardRes struct {
	fbIDPtr         uint64
	crtcIDPtr       uint64
	connectorIDPtr  uint64
	encoderIDPtr    uint64
	countFBs        uint32
	countCrtcs      uint32
	countConnectors uint32
	countEncoders   uint32
	minWidth        uint32
	maxWidth        uint32
	minHeight       uint32
	maxHeight       uint32
}

// sysModeInfo is struct drm_mode_modeinfo.
type sysModeInfo struct {
	clock      uint32
	hdisplay   uint16
	hsyncStart uint16
	hsyncEnd   uint16
	htotal     uint16
	hskew      uint16
	vdisplay   uint16
	vsyncStart uint16
	vsyncEnd   uint16
	vtotal     uint16
	vscan      uint16
	vrefresh   uint32
	flags      uint32
	typ        uint32
	name       [displayModeLen]byte
}

type sysCrtc struct {
	setConnectorsPtr uint64
	countConnectors  uint32
	crtcID           uint32
	fbID             uint32
	x                uint32
	y                uint32
	gammaSize        uint32
	modeValid        uint32
	mode             sysModeInfo
}

type sysGetEncoder struct {
	encoderID      uint32
	encoderType    uint32
	crtcID         uint32
	possibleCrtcs  uint32
	possibleClones uint32
}

type sysGetConnector struct {
	encodersPtr     uint64
	modesPtr        uint64
	propsPtr        uint64
	propValuesPtr   uint64
	countModes      uint32
	countProps      uint32
	countEncoders   uint32
	encoderID       uint32
	connectorID     uint32
	connectorType   uint32
	connectorTypeID uint32
	connection      uint32
	mmWidth         uint32
	mmHeight        uint32
	subpixel        uint32
	pad             uint32
}

type sysGetProperty struct {
	valuesPtr      uint64
	enumBlobPtr    uint64
	propID         uint32
	flags          uint32
	name           [propNameLen]byte
	countValues    uint32
	countEnumBlobs uint32
}

type sysPropertyEnum struct {
	value uint64
	name  [propNameLen]byte
}

type sysGetBlob struct {
	blobID uint32
	length uint32
	data   uint64
}

type sysFBCmd struct {
	fbID   uint32
	width  uint32
	height uint32
	pitch  uint32
	bpp    uint32
	depth  uint32
	handle uint32
}

type sysFBCmd2 struct {
	fbID        uint32
	width       uint32
	height      uint32
	pixelFormat uint32
	flags       uint32
	handles     [4]uint32
	pitches     [4]uint32
	offsets     [4]uint32
	modifier    [4]uint64
}

type sysGetPlaneRes struct {
	planeIDPtr  uint64
	countPlanes uint32
}

type sysGetPlane struct {
	planeID          uint32
	crtcID           uint32
	fbID             uint32
	possibleCrtcs    uint32
	gammaSize        uint32
	countFormatTypes uint32
	formatTypePtr    uint64
}

type sysObjGetProperties struct {
	propsPtr      uint64
	propValuesPtr uint64
	countProps    uint32
	objID         uint32
	objType       uint32
}

// struct drm_format_modifier_blob header and struct drm_format_modifier
// entry sizes.
const (
	formatModifierBlobSize = 24
	formatModifierSize     = 24
)
