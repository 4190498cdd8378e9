package drm

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DevDir is where DRM nodes live.
const DevDir = "/dev/dri"

// Node kinds, as bits of Device.AvailableNodes.
const (
	NodePrimary = 0
	NodeControl = 1
	NodeRender  = 2
)

// PCIInfo identifies a PCI device and its bus address.
type PCIInfo struct {
	Vendor          uint16
	Device          uint16
	SubsystemVendor uint16
	SubsystemDevice uint16
	Domain          uint16
	Bus             uint8
	Slot            uint8
	Function        uint8
}

// USBInfo identifies a USB device and its bus address.
type USBInfo struct {
	Vendor  uint16
	Product uint16
	Bus     uint8
	Device  uint8
}

// PlatformInfo describes a device tree device on the platform or host1x bus.
type PlatformInfo struct {
	FullName   string
	Compatible []string
}

// Device is the bus-level identity of a DRM node, as libdrm's drmGetDevice
// reports it. Exactly one of PCI, USB and Platform is set for known buses.
type Device struct {
	AvailableNodes uint32
	BusType        uint32
	Driver         string
	PCI            *PCIInfo
	USB            *USBInfo
	Platform       *PlatformInfo
}

// IsCardNode reports whether a class/drm entry is a primary node such as
// card0, excluding connector entries like card0-DP-1.
func IsCardNode(name string) bool {
	n, ok := strings.CutPrefix(name, "card")
	if !ok || n == "" {
		return false
	}
	_, err := strconv.ParseUint(n, 10, 32)
	return err == nil
}

// Discover lists the primary DRM nodes registered under root (normally
// /sys), ordered by card index.
func Discover(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, "class/drm"))
	if err != nil {
		return nil, fmt.Errorf("discover drm nodes: %w", err)
	}
	var idx []int
	for _, e := range entries {
		if !IsCardNode(e.Name()) {
			continue
		}
		n, _ := strconv.Atoi(strings.TrimPrefix(e.Name(), "card"))
		idx = append(idx, n)
	}
	slices.Sort(idx)
	paths := make([]string, len(idx))
	for i, n := range idx {
		paths[i] = filepath.Join(DevDir, "card"+strconv.Itoa(n))
	}
	return paths, nil
}

// DeviceInfo resolves the bus identity of the DRM node at path using the
// sysfs tree under root. Character devices are looked up by device number;
// other paths fall back to class/drm/<basename>.
func DeviceInfo(root, path string) (*Device, error) {
	devPath := sysDevicePath(root, path)
	if _, err := os.Stat(devPath); err != nil {
		return nil, fmt.Errorf("device info %s: %w", path, err)
	}

	dev := &Device{
		AvailableNodes: availableNodes(devPath),
		Driver:         linkBase(filepath.Join(devPath, "driver")),
	}
	if err := fillBus(dev, devPath); err != nil {
		return nil, fmt.Errorf("device info %s: %w", path, err)
	}
	return dev, nil
}

// fillBus sets the bus identity of dev from the sysfs device at devPath.
// virtio devices report the bus of their transport, the parent device.
func fillBus(dev *Device, devPath string) error {
	uevent := readUevent(filepath.Join(devPath, "uevent"))

	switch subsystem := linkBase(filepath.Join(devPath, "subsystem")); subsystem {
	case "pci":
		dev.BusType = BusPCI
		pci, err := parsePCI(uevent)
		if err != nil {
			return err
		}
		dev.PCI = pci
	case "usb":
		dev.BusType = BusUSB
		usb, err := parseUSB(devPath)
		if err != nil {
			return err
		}
		dev.USB = usb
	case "platform", "host1x":
		dev.BusType = BusPlatform
		if subsystem == "host1x" {
			dev.BusType = BusHost1x
		}
		dev.Platform = parsePlatform(uevent)
	case "virtio":
		resolved, err := filepath.EvalSymlinks(devPath)
		if err != nil {
			return err
		}
		parent := filepath.Dir(resolved)
		if linkBase(filepath.Join(parent, "subsystem")) == "virtio" {
			return fmt.Errorf("nested virtio device %s", parent)
		}
		return fillBus(dev, parent)
	default:
		return fmt.Errorf("unsupported bus %q", subsystem)
	}
	return nil
}

func sysDevicePath(root, path string) string {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil && st.Mode&unix.S_IFMT == unix.S_IFCHR {
		return filepath.Join(root, "dev/char",
			fmt.Sprintf("%d:%d", unix.Major(st.Rdev), unix.Minor(st.Rdev)), "device")
	}
	return filepath.Join(root, "class/drm", filepath.Base(path), "device")
}

func availableNodes(devPath string) uint32 {
	entries, err := os.ReadDir(filepath.Join(devPath, "drm"))
	if err != nil {
		return 0
	}
	var nodes uint32
	for _, e := range entries {
		switch name := e.Name(); {
		case IsCardNode(name):
			nodes |= 1 << NodePrimary
		case strings.HasPrefix(name, "controlD"):
			nodes |= 1 << NodeControl
		case strings.HasPrefix(name, "renderD"):
			nodes |= 1 << NodeRender
		}
	}
	return nodes
}

func linkBase(path string) string {
	target, err := os.Readlink(path)
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

// readUevent parses KEY=VALUE lines. Missing files yield an empty map.
func readUevent(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return map[string]string{}
	}
	defer f.Close()

	kv := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if k, v, ok := strings.Cut(sc.Text(), "="); ok {
			kv[k] = v
		}
	}
	return kv
}

func parsePCI(uevent map[string]string) (*PCIInfo, error) {
	var pci PCIInfo
	if _, err := fmt.Sscanf(uevent["PCI_ID"], "%x:%x", &pci.Vendor, &pci.Device); err != nil {
		return nil, fmt.Errorf("parse PCI_ID %q: %w", uevent["PCI_ID"], err)
	}
	if id, ok := uevent["PCI_SUBSYS_ID"]; ok {
		if _, err := fmt.Sscanf(id, "%x:%x", &pci.SubsystemVendor, &pci.SubsystemDevice); err != nil {
			return nil, fmt.Errorf("parse PCI_SUBSYS_ID %q: %w", id, err)
		}
	}
	slot := uevent["PCI_SLOT_NAME"]
	if _, err := fmt.Sscanf(slot, "%x:%x:%x.%x", &pci.Domain, &pci.Bus, &pci.Slot, &pci.Function); err != nil {
		return nil, fmt.Errorf("parse PCI_SLOT_NAME %q: %w", slot, err)
	}
	return &pci, nil
}

// parseUSB walks up from the interface to the USB device directory, the
// first ancestor carrying busnum.
func parseUSB(devPath string) (*USBInfo, error) {
	dir, err := filepath.EvalSymlinks(devPath)
	if err != nil {
		return nil, err
	}
	for ; dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "busnum")); err == nil {
			break
		}
	}
	read := func(name string, base, bits int) (uint64, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return 0, err
		}
		return strconv.ParseUint(strings.TrimSpace(string(b)), base, bits)
	}
	var usb USBInfo
	for _, f := range []struct {
		name string
		base int
		bits int
		set  func(uint64)
	}{
		{"idVendor", 16, 16, func(v uint64) { usb.Vendor = uint16(v) }},
		{"idProduct", 16, 16, func(v uint64) { usb.Product = uint16(v) }},
		{"busnum", 10, 8, func(v uint64) { usb.Bus = uint8(v) }},
		{"devnum", 10, 8, func(v uint64) { usb.Device = uint8(v) }},
	} {
		v, err := read(f.name, f.base, f.bits)
		if err != nil {
			return nil, fmt.Errorf("usb %s: %w", f.name, err)
		}
		f.set(v)
	}
	return &usb, nil
}

func parsePlatform(uevent map[string]string) *PlatformInfo {
	p := &PlatformInfo{FullName: uevent["OF_FULLNAME"], Compatible: []string{}}
	n, _ := strconv.Atoi(uevent["OF_COMPATIBLE_N"])
	for i := range n {
		if c, ok := uevent["OF_COMPATIBLE_"+strconv.Itoa(i)]; ok {
			p.Compatible = append(p.Compatible, c)
		}
	}
	return p
}

// Kernel is the running kernel's uname identification.
type Kernel struct {
	Sysname string
	Release string
	Version string
}

func Uname() (*Kernel, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return nil, &Error{Op: "uname", Err: err}
	}
	return &Kernel{
		Sysname: unix.ByteSliceToString(u.Sysname[:]),
		Release: unix.ByteSliceToString(u.Release[:]),
		Version: unix.ByteSliceToString(u.Version[:]),
	}, nil
}
