package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"drminfo/internal/drm"
)

// Card is the read-only view of a DRM node that collection needs.
// *drm.Card implements it.
type Card interface {
	Path() string
	Close() error
	Version() (*drm.Version, error)
	Cap(id uint64) (uint64, error)
	SetClientCap(id, value uint64) error
	Resources() (*drm.Resources, error)
	Connector(id uint32) (*drm.Connector, error)
	Encoder(id uint32) (*drm.Encoder, error)
	Crtc(id uint32) (*drm.Crtc, error)
	PlaneResources() ([]uint32, error)
	Plane(id uint32) (*drm.Plane, error)
	ObjectProperties(id, objType uint32) ([]drm.PropertyValue, error)
	Property(id uint32) (*drm.Property, error)
	PropertyBlob(id uint32) ([]byte, error)
	Framebuffer(id uint32) (*drm.Framebuffer, error)
}

// Collector gathers node state. The zero value reads the real /sys and
// /dev/dri and discards logs.
type Collector struct {
	// SysfsRoot is the sysfs mount point, "/sys" when empty.
	SysfsRoot string
	// Open opens a node, drm.Open when nil.
	Open   func(path string) (Card, error)
	Logger *log.Logger
}

// Collect builds a report for the given node paths, or for every primary
// node found in sysfs when paths is empty. Nodes that cannot be opened or
// enumerated are logged and left out.
func Collect(ctx context.Context, paths []string, logger *log.Logger) (Report, error) {
	c := &Collector{Logger: logger}
	return c.Collect(ctx, paths)
}

func (c *Collector) Collect(ctx context.Context, paths []string) (Report, error) {
	if len(paths) == 0 {
		found, err := drm.Discover(c.sysfs())
		if err != nil {
			return nil, err
		}
		paths = found
		c.logger().Debug("discovered nodes", "paths", paths)
	}

	rep := make(Report, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		node, err := c.node(ctx, path)
		if err != nil {
			kv := []any{"path", path, "err", err}
			if drm.IsPermission(err) {
				kv = append(kv, "hint", "add the user to the video group")
			}
			c.logger().Warn("failed to retrieve information", kv...)
			continue
		}
		rep[path] = node
	}
	return rep, nil
}

func (c *Collector) sysfs() string {
	if c.SysfsRoot == "" {
		return "/sys"
	}
	return c.SysfsRoot
}

func (c *Collector) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}

func (c *Collector) open(path string) (Card, error) {
	if c.Open != nil {
		return c.Open(path)
	}
	card, err := drm.Open(path)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// nodeCollector walks one open card. Failures below the resource level are
// logged and the affected object is skipped, so a partial report is still
// produced.
type nodeCollector struct {
	ctx  context.Context
	card Card
	log  *log.Logger
}

func (c *Collector) node(ctx context.Context, path string) (*Node, error) {
	card, err := c.open(path)
	if err != nil {
		return nil, err
	}
	defer card.Close()

	nc := &nodeCollector{ctx: ctx, card: card, log: c.logger().With("path", path)}
	node := &Node{}
	// Driver info first: it enables the client caps that expose universal
	// planes and atomic properties.
	node.Driver = nc.driver()
	node.Device = c.device(path, nc.log)

	res, err := card.Resources()
	if err != nil {
		return nil, fmt.Errorf("get resources: %w", err)
	}
	node.FBSize = FBSize{
		MinWidth:  res.MinWidth,
		MaxWidth:  res.MaxWidth,
		MinHeight: res.MinHeight,
		MaxHeight: res.MaxHeight,
	}
	if node.Connectors, err = nc.connectors(res.Connectors); err != nil {
		return nil, err
	}
	if node.Encoders, err = nc.encoders(res.Encoders); err != nil {
		return nil, err
	}
	if node.CRTCs, err = nc.crtcs(res.CRTCs); err != nil {
		return nil, err
	}
	if node.Planes, err = nc.planes(); err != nil {
		return nil, err
	}
	return node, nil
}

func (nc *nodeCollector) driver() *Driver {
	v, err := nc.card.Version()
	if err != nil {
		nc.log.Warn("get version", "err", err)
		return nil
	}
	d := &Driver{
		Name: v.Name,
		Desc: v.Desc,
		Version: DriverVersion{
			Major: v.Major,
			Minor: v.Minor,
			Patch: v.Patch,
			Date:  v.Date,
		},
		ClientCaps: make(map[string]bool, len(drm.ClientCaps)),
		Caps:       make(map[string]*uint64, len(drm.Caps)),
	}
	if k, err := drm.Uname(); err != nil {
		nc.log.Warn("uname", "err", err)
	} else {
		d.Kernel = &Kernel{Sysname: k.Sysname, Release: k.Release, Version: k.Version}
	}
	for _, cc := range drm.ClientCaps {
		d.ClientCaps[cc.Name] = nc.card.SetClientCap(cc.ID, 1) == nil
	}
	for _, cp := range drm.Caps {
		val, err := nc.card.Cap(cp.ID)
		if err != nil {
			d.Caps[cp.Name] = nil
			continue
		}
		d.Caps[cp.Name] = ptr(val)
	}
	return d
}

func (c *Collector) device(path string, logger *log.Logger) *Device {
	info, err := drm.DeviceInfo(c.sysfs(), path)
	if err != nil {
		logger.Warn("get device", "err", err)
		return nil
	}
	dev := &Device{
		AvailableNodes: info.AvailableNodes,
		BusType:        info.BusType,
		KernelDriver:   info.Driver,
	}
	switch {
	case info.PCI != nil:
		p := info.PCI
		dev.DeviceData = &DeviceData{
			Vendor:          ptr(uint32(p.Vendor)),
			Device:          ptr(uint32(p.Device)),
			SubsystemVendor: ptr(uint32(p.SubsystemVendor)),
			SubsystemDevice: ptr(uint32(p.SubsystemDevice)),
		}
		dev.BusData = &BusData{
			Domain:   ptr(uint32(p.Domain)),
			Bus:      ptr(uint32(p.Bus)),
			Slot:     ptr(uint32(p.Slot)),
			Function: ptr(uint32(p.Function)),
		}
	case info.USB != nil:
		u := info.USB
		dev.DeviceData = &DeviceData{Vendor: ptr(uint32(u.Vendor)), Product: ptr(uint32(u.Product))}
		dev.BusData = &BusData{Bus: ptr(uint32(u.Bus)), Device: ptr(uint32(u.Device))}
	case info.Platform != nil:
		dev.DeviceData = &DeviceData{Compatible: info.Platform.Compatible}
		dev.BusData = &BusData{FullName: info.Platform.FullName}
	}
	return dev
}

func (nc *nodeCollector) connectors(ids []uint32) ([]Connector, error) {
	out := []Connector{}
	for _, id := range ids {
		if err := nc.ctx.Err(); err != nil {
			return nil, err
		}
		conn, err := nc.card.Connector(id)
		if err != nil {
			nc.log.Warn("get connector", "id", id, "err", err)
			continue
		}
		rc := Connector{
			ID:         conn.ID,
			Type:       conn.Type,
			Status:     conn.Status,
			PhyWidth:   conn.PhyWidth,
			PhyHeight:  conn.PhyHeight,
			Subpixel:   conn.Subpixel,
			EncoderID:  conn.EncoderID,
			Encoders:   append([]uint32{}, conn.Encoders...),
			Modes:      make([]Mode, 0, len(conn.Modes)),
			Properties: nc.properties(conn.ID, drm.ObjectConnector),
		}
		for _, m := range conn.Modes {
			rc.Modes = append(rc.Modes, modeFrom(m))
		}
		out = append(out, rc)
	}
	return out, nil
}

func (nc *nodeCollector) encoders(ids []uint32) ([]Encoder, error) {
	out := []Encoder{}
	for _, id := range ids {
		if err := nc.ctx.Err(); err != nil {
			return nil, err
		}
		enc, err := nc.card.Encoder(id)
		if err != nil {
			nc.log.Warn("get encoder", "id", id, "err", err)
			continue
		}
		out = append(out, Encoder(*enc))
	}
	return out, nil
}

func (nc *nodeCollector) crtcs(ids []uint32) ([]CRTC, error) {
	out := []CRTC{}
	for _, id := range ids {
		if err := nc.ctx.Err(); err != nil {
			return nil, err
		}
		crtc, err := nc.card.Crtc(id)
		if err != nil {
			nc.log.Warn("get crtc", "id", id, "err", err)
			continue
		}
		rc := CRTC{
			ID:         crtc.ID,
			FBID:       crtc.FBID,
			X:          crtc.X,
			Y:          crtc.Y,
			GammaSize:  crtc.GammaSize,
			Properties: nc.properties(crtc.ID, drm.ObjectCrtc),
		}
		if crtc.Mode != nil {
			rc.Mode = ptr(modeFrom(*crtc.Mode))
		}
		out = append(out, rc)
	}
	return out, nil
}

// planes returns nil when the driver has no plane support at all.
func (nc *nodeCollector) planes() ([]Plane, error) {
	ids, err := nc.card.PlaneResources()
	if err != nil {
		nc.log.Warn("get plane resources", "err", err)
		return nil, nil
	}
	out := []Plane{}
	for _, id := range ids {
		if err := nc.ctx.Err(); err != nil {
			return nil, err
		}
		plane, err := nc.card.Plane(id)
		if err != nil {
			nc.log.Warn("get plane", "id", id, "err", err)
			continue
		}
		rp := Plane{
			ID:            plane.ID,
			PossibleCrtcs: plane.PossibleCrtcs,
			CrtcID:        plane.CrtcID,
			FBID:          plane.FBID,
			GammaSize:     plane.GammaSize,
			Formats:       append([]uint32{}, plane.Formats...),
			Properties:    nc.properties(plane.ID, drm.ObjectPlane),
		}
		if plane.FBID != 0 {
			rp.FB = nc.framebuffer(plane.FBID)
		}
		out = append(out, rp)
	}
	return out, nil
}

func (nc *nodeCollector) framebuffer(id uint32) *Framebuffer {
	fb, err := nc.card.Framebuffer(id)
	if err != nil {
		nc.log.Warn("get framebuffer", "id", id, "err", err)
		return nil
	}
	return framebufferFrom(fb)
}

func (nc *nodeCollector) properties(id, objType uint32) Properties {
	values, err := nc.card.ObjectProperties(id, objType)
	if err != nil {
		nc.log.Warn("get object properties", "id", id, "err", err)
		return nil
	}
	props := make(Properties, len(values))
	for _, pv := range values {
		prop, err := nc.card.Property(pv.ID)
		if err != nil {
			nc.log.Warn("get property", "id", pv.ID, "err", err)
			continue
		}
		props[prop.Name] = nc.property(prop, pv.Value)
	}
	return props
}

func (nc *nodeCollector) property(prop *drm.Property, value uint64) *Property {
	p := &Property{
		ID:        prop.ID,
		Flags:     prop.Flags,
		Type:      prop.Type(),
		Atomic:    prop.Atomic(),
		Immutable: prop.Immutable(),
		RawValue:  value,
	}

	switch p.Type {
	case drm.PropRange, drm.PropSignedRange:
		if len(prop.Values) >= 2 {
			p.Range = &Range{Min: prop.Values[0], Max: prop.Values[1]}
		}
	case drm.PropEnum, drm.PropBitmask:
		p.Enums = make([]Enum, 0, len(prop.Enums))
		for _, e := range prop.Enums {
			p.Enums = append(p.Enums, Enum(e))
		}
	case drm.PropObject:
		if len(prop.Values) >= 1 {
			p.ObjectType = ptr(prop.Values[0])
		}
	}

	switch p.Type {
	case drm.PropBlob:
		if value != 0 {
			nc.blobData(p, prop.Name, uint32(value))
		}
	case drm.PropRange:
		// SRC_* plane coordinates are 16.16 fixed point.
		if strings.HasPrefix(prop.Name, "SRC_") {
			p.Integer = ptr(value >> 16)
		}
	case drm.PropObject:
		if value != 0 && prop.Name == "FB_ID" {
			p.FB = nc.framebuffer(uint32(value))
		}
	}
	return p
}

func (nc *nodeCollector) blobData(p *Property, name string, id uint32) {
	var decode func(b []byte) error
	switch name {
	case "IN_FORMATS":
		decode = func(b []byte) error {
			mods, err := drm.ParseInFormats(b)
			if err != nil {
				return err
			}
			p.InFormats = make([]InFormat, 0, len(mods))
			for _, m := range mods {
				p.InFormats = append(p.InFormats, InFormat(m))
			}
			return nil
		}
	case "MODE_ID":
		decode = func(b []byte) error {
			m, err := drm.ParseModeInfo(b)
			if err != nil {
				return err
			}
			p.Mode = ptr(modeFrom(m))
			return nil
		}
	case "WRITEBACK_PIXEL_FORMATS":
		decode = func(b []byte) error {
			p.Formats = drm.ParseFormatList(b)
			return nil
		}
	case "PATH":
		decode = func(b []byte) error {
			p.Path = ptr(string(b))
			return nil
		}
	case "HDR_OUTPUT_METADATA":
		decode = func(b []byte) error {
			m, err := drm.ParseHDRMetadata(b)
			if err != nil {
				return err
			}
			p.HDR = hdrFrom(m)
			return nil
		}
	default:
		return
	}

	b, err := nc.card.PropertyBlob(id)
	if err == nil {
		err = decode(b)
	}
	if err != nil {
		nc.log.Warn("get property blob", "property", name, "blob", id, "err", err)
	}
}
