package evdev

import (
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

// ioctl request-code encoding for the handful of evdev ioctls whose
// argument is a runtime-sized buffer (EVIOCGNAME and friends).
// goioctl's IOR/IOW build a request code from a fixed-size argument;
// for a variable-length buffer we need the same _IOC encoding the
// kernel's asm-generic/ioctl.h defines with a length supplied at call
// time, mirroring andrieee44-mylib's linux/ioctl package.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead  = uintptr(2)
	iocWrite = uintptr(1)
)

func iocEncode(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

func evIOCGNAME(length int) uintptr { return iocEncode(iocRead, 'E', 0x06, uintptr(length)) }
func evIOCGPHYS(length int) uintptr { return iocEncode(iocRead, 'E', 0x07, uintptr(length)) }
func evIOCGUNIQ(length int) uintptr { return iocEncode(iocRead, 'E', 0x08, uintptr(length)) }
func evIOCGPROP(length int) uintptr { return iocEncode(iocRead, 'E', 0x09, uintptr(length)) }
func evIOCGMTSLOTS(length int) uintptr {
	return iocEncode(iocRead, 'E', 0x0a, uintptr(length))
}
func evIOCGKEY(length int) uintptr { return iocEncode(iocRead, 'E', 0x18, uintptr(length)) }
func evIOCGLED(length int) uintptr { return iocEncode(iocRead, 'E', 0x19, uintptr(length)) }
func evIOCGSW(length int) uintptr  { return iocEncode(iocRead, 'E', 0x1b, uintptr(length)) }
func evIOCGBIT(ev, length int) uintptr {
	return iocEncode(iocRead, 'E', uintptr(0x20+ev), uintptr(length))
}
func evIOCGAbs(code int) uintptr {
	return iocEncode(iocRead, 'E', uintptr(0x40+code), unsafe.Sizeof(AbsInfo{}))
}
func evIOCSAbs(code int) uintptr {
	return iocEncode(iocWrite, 'E', uintptr(0xc0+code), unsafe.Sizeof(AbsInfo{}))
}

var (
	evIOCGVersion = ioctl.IOR('E', 0x01, unsafe.Sizeof(int32(0)))
	evIOCGID      = ioctl.IOR('E', 0x02, unsafe.Sizeof(deviceID{}))
	evIOCGRep     = ioctl.IOR('E', 0x03, unsafe.Sizeof([2]int32{}))
	evIOCSRep     = ioctl.IOW('E', 0x03, unsafe.Sizeof([2]int32{}))

	evIOCGMask = ioctl.IOR('E', 0x92, unsafe.Sizeof(maskRequest{}))
	evIOCSMask = ioctl.IOW('E', 0x93, unsafe.Sizeof(maskRequest{}))

	evIOCGrab     = ioctl.IOW('E', 0x90, unsafe.Sizeof(int32(0)))
	evIOCSClockID = ioctl.IOW('E', 0xa0, unsafe.Sizeof(int32(0)))
)

// maskRequest mirrors struct input_mask for EVIOCGMASK/EVIOCSMASK.
type maskRequest struct {
	Type      uint32
	CodesSize uint32
	CodesPtr  uint64
}
