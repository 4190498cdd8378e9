//go:build linux && !cgo && (amd64 || arm64)

package egl

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

const (
	eglTrue                = 1
	eglNone                = 0x3038
	eglVendor              = 0x3053
	eglVersion             = 0x3054
	eglContextMajorVersion = 0x3098
	eglOpenGLESAPI         = 0x30A0
	eglPlatformDevice      = 0x313F
	eglDRMDeviceFile       = 0x3233
	glRenderer             = 0x1F01
)

var (
	tPtr  = types.PointerTypeDescriptor
	tInt  = types.SInt32TypeDescriptor
	tUint = types.UInt32TypeDescriptor
)

// proc is a C function with a prepared call interface.
type proc struct {
	name string
	fn   unsafe.Pointer
	cif  types.CallInterface
}

func newProc(name string, fn unsafe.Pointer, ret *types.TypeDescriptor, args ...*types.TypeDescriptor) (*proc, error) {
	p := &proc{name: name, fn: fn}
	if err := ffi.PrepareCallInterface(&p.cif, types.DefaultCall, ret, args); err != nil {
		return nil, fmt.Errorf("prepare %s: %w", name, err)
	}
	return p, nil
}

// ptr calls a function returning a pointer. Each arg points at its value.
func (p *proc) ptr(args ...unsafe.Pointer) uintptr {
	var r uintptr
	if err := ffi.CallFunction(&p.cif, p.fn, unsafe.Pointer(&r), args); err != nil {
		return 0
	}
	return r
}

// ok calls a function returning EGLBoolean.
func (p *proc) ok(args ...unsafe.Pointer) bool {
	var r uint32
	if err := ffi.CallFunction(&p.cif, p.fn, unsafe.Pointer(&r), args); err != nil {
		return false
	}
	return r == eglTrue
}

func pv(v uintptr) unsafe.Pointer { return unsafe.Pointer(&v) }
func iv(v int32) unsafe.Pointer   { return unsafe.Pointer(&v) }

// addr pins p for the lifetime of pin and returns its address for C.
func addr[T any](pin *runtime.Pinner, p *T) uintptr {
	pin.Pin(p)
	return uintptr(unsafe.Pointer(p))
}

func cString(pin *runtime.Pinner, s string) uintptr {
	b := append([]byte(s), 0)
	return addr(pin, &b[0])
}

func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	base := unsafe.Pointer(p)
	n := 0
	for *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(base), n))
}

type library struct {
	egl  unsafe.Pointer
	gles unsafe.Pointer

	getProcAddress     *proc
	initialize         *proc
	terminate          *proc
	bindAPI            *proc
	getConfigs         *proc
	createContext      *proc
	destroyContext     *proc
	makeCurrent        *proc
	queryString        *proc
	queryDevices       *proc
	queryDeviceString  *proc
	getPlatformDisplay *proc
	queryFormats       *proc
	queryModifiers     *proc
	getString          *proc
}

type symbol struct {
	dst  **proc
	name string
	ret  *types.TypeDescriptor
	args []*types.TypeDescriptor
}

// Load opens libEGL.so.1 and resolves the device enumeration and dmabuf
// query extensions.
func Load() (Backend, error) {
	handle, err := ffi.LoadLibrary("libEGL.so.1")
	if err != nil {
		return nil, fmt.Errorf("load libEGL: %w", err)
	}
	l := &library{egl: handle}

	core := []symbol{
		{&l.getProcAddress, "eglGetProcAddress", tPtr, []*types.TypeDescriptor{tPtr}},
		{&l.initialize, "eglInitialize", tUint, []*types.TypeDescriptor{tPtr, tPtr, tPtr}},
		{&l.terminate, "eglTerminate", tUint, []*types.TypeDescriptor{tPtr}},
		{&l.bindAPI, "eglBindAPI", tUint, []*types.TypeDescriptor{tUint}},
		{&l.getConfigs, "eglGetConfigs", tUint, []*types.TypeDescriptor{tPtr, tPtr, tInt, tPtr}},
		{&l.createContext, "eglCreateContext", tPtr, []*types.TypeDescriptor{tPtr, tPtr, tPtr, tPtr}},
		{&l.destroyContext, "eglDestroyContext", tUint, []*types.TypeDescriptor{tPtr, tPtr}},
		{&l.makeCurrent, "eglMakeCurrent", tUint, []*types.TypeDescriptor{tPtr, tPtr, tPtr, tPtr}},
		{&l.queryString, "eglQueryString", tPtr, []*types.TypeDescriptor{tPtr, tInt}},
	}
	for _, s := range core {
		fn, err := ffi.GetSymbol(handle, s.name)
		if err != nil {
			l.Close()
			return nil, err
		}
		if *s.dst, err = newProc(s.name, fn, s.ret, s.args...); err != nil {
			l.Close()
			return nil, err
		}
	}

	ext := []symbol{
		{&l.queryDevices, "eglQueryDevicesEXT", tUint, []*types.TypeDescriptor{tInt, tPtr, tPtr}},
		{&l.queryDeviceString, "eglQueryDeviceStringEXT", tPtr, []*types.TypeDescriptor{tPtr, tInt}},
		{&l.getPlatformDisplay, "eglGetPlatformDisplayEXT", tPtr, []*types.TypeDescriptor{tUint, tPtr, tPtr}},
		{&l.queryFormats, "eglQueryDmaBufFormatsEXT", tUint, []*types.TypeDescriptor{tPtr, tInt, tPtr, tPtr}},
		{&l.queryModifiers, "eglQueryDmaBufModifiersEXT", tUint, []*types.TypeDescriptor{tPtr, tInt, tInt, tPtr, tPtr, tPtr}},
		{&l.getString, "glGetString", tPtr, []*types.TypeDescriptor{tUint}},
	}
	for _, s := range ext {
		fn := l.proc(s.name)
		if fn == nil {
			continue
		}
		if *s.dst, err = newProc(s.name, fn, s.ret, s.args...); err != nil {
			l.Close()
			return nil, err
		}
	}
	if l.queryDevices == nil || l.queryDeviceString == nil || l.getPlatformDisplay == nil {
		l.Close()
		return nil, errors.New("egl: EGL_EXT_device_enumeration and EGL_EXT_platform_device are required")
	}
	return l, nil
}

// proc resolves name through eglGetProcAddress. glGetString comes from
// libGLESv2 when it can be loaded.
func (l *library) proc(name string) unsafe.Pointer {
	if name == "glGetString" {
		if l.gles == nil {
			l.gles, _ = ffi.LoadLibrary("libGLESv2.so.2")
		}
		if l.gles != nil {
			if fn, err := ffi.GetSymbol(l.gles, name); err == nil {
				return fn
			}
		}
	}
	var pin runtime.Pinner
	defer pin.Unpin()
	return unsafe.Pointer(l.getProcAddress.ptr(pv(cString(&pin, name))))
}

func (l *library) Close() error {
	err := ffi.FreeLibrary(l.gles)
	return errors.Join(err, ffi.FreeLibrary(l.egl))
}

func (l *library) Devices() ([]Device, error) {
	var pin runtime.Pinner
	defer pin.Unpin()

	num := new(int32)
	if !l.queryDevices.ok(iv(0), pv(0), pv(addr(&pin, num))) {
		return nil, errors.New("eglQueryDevicesEXT failed")
	}
	if *num == 0 {
		return nil, nil
	}
	handles := make([]uintptr, *num)
	if !l.queryDevices.ok(iv(*num), pv(addr(&pin, &handles[0])), pv(addr(&pin, num))) {
		return nil, errors.New("eglQueryDevicesEXT failed")
	}

	devices := make([]Device, 0, *num)
	for _, h := range handles[:*num] {
		path := goString(l.queryDeviceString.ptr(pv(h), iv(eglDRMDeviceFile)))
		devices = append(devices, &device{lib: l, handle: h, path: path})
	}
	return devices, nil
}

type device struct {
	lib    *library
	handle uintptr
	path   string
}

func (d *device) Path() string {
	return d.path
}

// Open initializes a display on the device and makes a GLES 2 context
// current without a surface. The calling goroutine stays on its thread
// until Close.
func (d *device) Open() (Display, error) {
	l := d.lib
	runtime.LockOSThread()

	dpy := l.getPlatformDisplay.ptr(iv(eglPlatformDevice), pv(d.handle), pv(0))
	if dpy == 0 {
		runtime.UnlockOSThread()
		return nil, errors.New("eglGetPlatformDisplayEXT failed")
	}

	var pin runtime.Pinner
	defer pin.Unpin()
	major, minor := new(int32), new(int32)
	if !l.initialize.ok(pv(dpy), pv(addr(&pin, major)), pv(addr(&pin, minor))) {
		runtime.UnlockOSThread()
		return nil, errors.New("eglInitialize failed")
	}
	disp := &display{lib: l, dpy: dpy}

	l.bindAPI.ok(iv(eglOpenGLESAPI))
	num := new(int32)
	if l.getConfigs.ok(pv(dpy), pv(0), iv(0), pv(addr(&pin, num))) && *num > 0 {
		configs := make([]uintptr, *num)
		l.getConfigs.ok(pv(dpy), pv(addr(&pin, &configs[0])), iv(*num), pv(addr(&pin, num)))
		attribs := []int32{eglContextMajorVersion, 2, eglNone}
		disp.ctx = l.createContext.ptr(pv(dpy), pv(configs[0]), pv(0), pv(addr(&pin, &attribs[0])))
		if disp.ctx != 0 {
			disp.current = l.makeCurrent.ok(pv(dpy), pv(0), pv(0), pv(disp.ctx))
		}
	}
	return disp, nil
}

type display struct {
	lib     *library
	dpy     uintptr
	ctx     uintptr
	current bool
}

func (d *display) Vendor() string {
	return goString(d.lib.queryString.ptr(pv(d.dpy), iv(eglVendor)))
}

func (d *display) Version() string {
	return goString(d.lib.queryString.ptr(pv(d.dpy), iv(eglVersion)))
}

// Renderer is the GL_RENDERER string, empty without a current context.
func (d *display) Renderer() string {
	if !d.current || d.lib.getString == nil {
		return ""
	}
	return goString(d.lib.getString.ptr(iv(glRenderer)))
}

func (d *display) DmaBufFormats() ([]uint32, error) {
	l := d.lib
	if l.queryFormats == nil {
		return nil, ErrNoDmaBuf
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	num := new(int32)
	if !l.queryFormats.ok(pv(d.dpy), iv(0), pv(0), pv(addr(&pin, num))) {
		return nil, ErrNoDmaBuf
	}
	if *num == 0 {
		return []uint32{}, nil
	}
	formats := make([]int32, *num)
	if !l.queryFormats.ok(pv(d.dpy), iv(*num), pv(addr(&pin, &formats[0])), pv(addr(&pin, num))) {
		return nil, errors.New("eglQueryDmaBufFormatsEXT failed")
	}
	out := make([]uint32, *num)
	for i, f := range formats[:*num] {
		out[i] = uint32(f)
	}
	return out, nil
}

func (d *display) DmaBufModifiers(format uint32) ([]uint64, error) {
	l := d.lib
	if l.queryModifiers == nil {
		return nil, ErrNoDmaBuf
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	num := new(int32)
	if !l.queryModifiers.ok(pv(d.dpy), iv(int32(format)), iv(0), pv(0), pv(0), pv(addr(&pin, num))) {
		return nil, fmt.Errorf("eglQueryDmaBufModifiersEXT(%#x) failed", format)
	}
	if *num == 0 {
		return []uint64{}, nil
	}
	mods := make([]uint64, *num)
	external := make([]uint32, *num)
	if !l.queryModifiers.ok(pv(d.dpy), iv(int32(format)), iv(*num),
		pv(addr(&pin, &mods[0])), pv(addr(&pin, &external[0])), pv(addr(&pin, num))) {
		return nil, fmt.Errorf("eglQueryDmaBufModifiersEXT(%#x) failed", format)
	}
	return mods[:*num], nil
}

func (d *display) Close() error {
	defer runtime.UnlockOSThread()
	l := d.lib
	if d.current {
		l.makeCurrent.ok(pv(d.dpy), pv(0), pv(0), pv(0))
	}
	if d.ctx != 0 {
		l.destroyContext.ok(pv(d.dpy), pv(d.ctx))
	}
	if !l.terminate.ok(pv(d.dpy)) {
		return errors.New("eglTerminate failed")
	}
	return nil
}
