//go:build windows

package capture

import (
	"fmt"
	"image"
	"log/slog"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// BackendDXGI names the GPU desktop duplication backend.
const BackendDXGI = "dxgi"

var (
	modD3D11              = windows.NewLazySystemDLL("d3d11.dll")
	procD3D11CreateDevice = modD3D11.NewProc("D3D11CreateDevice")

	iidIDXGIDevice     = windows.GUID{Data1: 0x54ec77fa, Data2: 0x1377, Data3: 0x44e6, Data4: [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidIDXGIOutput1    = windows.GUID{Data1: 0x00cddea8, Data2: 0x939b, Data3: 0x4b83, Data4: [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidID3D11Texture2D = windows.GUID{Data1: 0x6f15aaf2, Data2: 0xd208, Data3: 0x4e89, Data4: [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

// vtable slots
const (
	vtQueryInterface = 0
	vtRelease        = 2

	vtDXGIDeviceGetAdapter    = 7
	vtDXGIAdapterEnumOutputs  = 7
	vtDXGIOutput1DuplicateOut = 22
	vtDuplAcquireNextFrame    = 8
	vtDuplReleaseFrame        = 14

	vtDeviceCreateTexture2D = 5
	vtTexture2DGetDesc      = 10

	vtCtxMap                   = 14
	vtCtxUnmap                 = 15
	vtCtxCopySubresourceRegion = 46
)

const (
	d3dDriverTypeHardware  = 1
	d3d11CreateBGRASupport = 0x20
	d3dFeatureLevel11_0    = 0xb000
	d3d11SDKVersion        = 7

	dxgiFormatB8G8R8A8 = 87
	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000
	d3d11MapRead       = 1
)

type texture2DDesc struct {
	Width, Height, MipLevels, ArraySize uint32
	Format                              uint32
	SampleCount, SampleQuality          uint32
	Usage, BindFlags, CPUAccessFlags    uint32
	MiscFlags                           uint32
}

type d3dBox struct {
	Left, Top, Front, Right, Bottom, Back uint32
}

type mappedSubresource struct {
	Data       uintptr
	RowPitch   uint32
	DepthPitch uint32
}

type outduplFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerX, PointerY        int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

func comCall(obj uintptr, slot int, args ...uintptr) HRESULT {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return HRESULT(r)
}

func comRelease(obj *uintptr) {
	if *obj != 0 {
		comCall(*obj, vtRelease)
		*obj = 0
	}
}

func check(op string, hr HRESULT) error {
	if hr.Failed() {
		return &HRESULTError{Op: op, Code: hr}
	}
	return nil
}

// dxgiDevice holds the D3D11 device, its immediate context, the output duplication
// and a CPU-readable staging texture sized to the last requested region.
type dxgiDevice struct {
	output   uint32
	device   uintptr
	context  uintptr
	dupl     uintptr
	staging  uintptr
	stagingW int
	stagingH int
}

func (d *dxgiDevice) open() error {
	levels := [1]uint32{d3dFeatureLevel11_0}
	var got uint32
	r, _, _ := procD3D11CreateDevice.Call(
		0, d3dDriverTypeHardware, 0, d3d11CreateBGRASupport,
		uintptr(unsafe.Pointer(&levels[0])), 1, d3d11SDKVersion,
		uintptr(unsafe.Pointer(&d.device)), uintptr(unsafe.Pointer(&got)),
		uintptr(unsafe.Pointer(&d.context)),
	)
	if err := check("D3D11CreateDevice", HRESULT(r)); err != nil {
		d.teardown()
		return err
	}

	var dxgiDev, adapter, output, output1 uintptr
	defer comRelease(&dxgiDev)
	defer comRelease(&adapter)
	defer comRelease(&output)
	defer comRelease(&output1)

	steps := []struct {
		op string
		fn func() HRESULT
	}{
		{"QueryInterface(IDXGIDevice)", func() HRESULT {
			return comCall(d.device, vtQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIDevice)), uintptr(unsafe.Pointer(&dxgiDev)))
		}},
		{"IDXGIDevice.GetAdapter", func() HRESULT {
			return comCall(dxgiDev, vtDXGIDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter)))
		}},
		{"IDXGIAdapter.EnumOutputs", func() HRESULT {
			return comCall(adapter, vtDXGIAdapterEnumOutputs, uintptr(d.output), uintptr(unsafe.Pointer(&output)))
		}},
		{"QueryInterface(IDXGIOutput1)", func() HRESULT {
			return comCall(output, vtQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIOutput1)), uintptr(unsafe.Pointer(&output1)))
		}},
		{"IDXGIOutput1.DuplicateOutput", func() HRESULT {
			return comCall(output1, vtDXGIOutput1DuplicateOut, d.device, uintptr(unsafe.Pointer(&d.dupl)))
		}},
	}
	for _, st := range steps {
		if err := check(st.op, st.fn()); err != nil {
			d.teardown()
			return err
		}
	}
	return nil
}

func (d *dxgiDevice) ensureStaging(w, h int) error {
	if d.staging != 0 && d.stagingW == w && d.stagingH == h {
		return nil
	}
	comRelease(&d.staging)
	desc := texture2DDesc{
		Width: uint32(w), Height: uint32(h), MipLevels: 1, ArraySize: 1,
		Format: dxgiFormatB8G8R8A8, SampleCount: 1,
		Usage: d3d11UsageStaging, CPUAccessFlags: d3d11CPUAccessRead,
	}
	hr := comCall(d.device, vtDeviceCreateTexture2D, uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&d.staging)))
	if err := check("ID3D11Device.CreateTexture2D", hr); err != nil {
		d.staging = 0
		return err
	}
	d.stagingW, d.stagingH = w, h
	return nil
}

func (d *dxgiDevice) grab(region image.Rectangle, dst *Buffer, timeout time.Duration) error {
	var info outduplFrameInfo
	var resource uintptr
	hr := comCall(d.dupl, vtDuplAcquireNextFrame, uintptr(timeout.Milliseconds()), uintptr(unsafe.Pointer(&info)), uintptr(unsafe.Pointer(&resource)))
	if err := check("IDXGIOutputDuplication.AcquireNextFrame", hr); err != nil {
		return err
	}
	defer comCall(d.dupl, vtDuplReleaseFrame)
	defer comRelease(&resource)

	var tex uintptr
	hr = comCall(resource, vtQueryInterface, uintptr(unsafe.Pointer(&iidID3D11Texture2D)), uintptr(unsafe.Pointer(&tex)))
	if err := check("QueryInterface(ID3D11Texture2D)", hr); err != nil {
		return err
	}
	defer comRelease(&tex)

	var desc texture2DDesc
	comCall(tex, vtTexture2DGetDesc, uintptr(unsafe.Pointer(&desc)))
	r := region.Intersect(image.Rect(0, 0, int(desc.Width), int(desc.Height)))
	if r.Empty() {
		return ErrEmptyRegion
	}
	w, h := r.Dx(), r.Dy()
	if err := d.ensureStaging(w, h); err != nil {
		return err
	}

	box := d3dBox{Left: uint32(r.Min.X), Top: uint32(r.Min.Y), Front: 0, Right: uint32(r.Max.X), Bottom: uint32(r.Max.Y), Back: 1}
	comCall(d.context, vtCtxCopySubresourceRegion, d.staging, 0, 0, 0, 0, tex, 0, uintptr(unsafe.Pointer(&box)))

	var mapped mappedSubresource
	hr = comCall(d.context, vtCtxMap, d.staging, 0, d3d11MapRead, 0, uintptr(unsafe.Pointer(&mapped)))
	if err := check("ID3D11DeviceContext.Map", hr); err != nil {
		return err
	}
	defer comCall(d.context, vtCtxUnmap, d.staging, 0)

	pitch := int(mapped.RowPitch)
	src := unsafe.Slice((*byte)(unsafe.Pointer(mapped.Data)), pitch*(h-1)+w*4)
	dst.ensure(w, h, FormatBGRA)
	if n := copyRows(dst.Pix, dst.Stride, src, pitch, w*4, h); n != h {
		return fmt.Errorf("capture: mapped surface short, copied %d of %d rows", n, h)
	}
	return nil
}

// teardown releases in reverse creation order and is safe to repeat.
func (d *dxgiDevice) teardown() {
	comRelease(&d.staging)
	d.stagingW, d.stagingH = 0, 0
	comRelease(&d.dupl)
	comRelease(&d.context)
	comRelease(&d.device)
}

// NewDXGISource opens desktop duplication of output 0 and returns it as a Source.
// An error means the GPU path is unusable here and callers should use the generic backend.
func NewDXGISource(logger *slog.Logger, timeout, backoff time.Duration) (*Session, error) {
	dev := &dxgiDevice{}
	if err := dev.open(); err != nil {
		return nil, fmt.Errorf("dxgi init: %w", err)
	}
	s := newSession(BackendDXGI, dev, logger, timeout, backoff)
	s.state = StateReady
	return s, nil
}
