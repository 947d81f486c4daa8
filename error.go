package evdev

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Error wraps a lower-level cause (typically a syscall.Errno from an
// ioctl or read) with a short description of what the library was
// trying to do.
type Error struct {
	msg string
	err error
}

func (e Error) Error() string {
	if e.msg != "" {
		msg := e.msg
		if e.err != nil {
			msg += ": " + e.err.Error()
		}
		return msg
	}
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e Error) Unwrap() error {
	return e.err
}

func wrapErr(msg string, e error) error {
	if e == nil {
		return nil
	}
	return Error{
		msg: msg,
		err: e,
	}
}

var (
	// ErrClosed is returned by Device methods once Close has been called.
	ErrClosed = Error{"device already detached", unix.EBADF}

	// ErrNotAttached is returned by operations that require a probed
	// Capability Set and State Cache (e.g. ForceSync) before one exists.
	ErrNotAttached = errors.New("evdev: device not attached")

	// ErrUnsupported is returned when a caller names a type, code or
	// property outside what the Capability Set can hold, tries to disable
	// the synchronization type/codes, or tries to activate an inactive
	// slot's tracking ID without fromKernel (SetTrackingID). Reading a
	// disabled (type, code) is not an error: it yields 0.
	ErrUnsupported = errors.New("evdev: capability not supported")

	// ErrBadSlot is returned when a caller addresses a multi-touch slot
	// index at or beyond the device's slot_count (or the hard ceiling).
	ErrBadSlot = errors.New("evdev: slot index out of range")

	// ErrBadPayload is returned when enabling a code that requires an
	// accompanying payload (abs_info for absolute codes, delay/period
	// for repeat) is called without one.
	ErrBadPayload = errors.New("evdev: missing required payload")

	// ErrTruncatedRead is returned when a read from the descriptor
	// yields a byte count that is not a multiple of the event record
	// size, indicating a truncated kernel buffer.
	ErrTruncatedRead = errors.New("evdev: truncated event record")

	// ErrNoEvent is returned by Device.Next when NoBlock is set and
	// nothing is currently available.
	ErrNoEvent = errors.New("evdev: no event available")
)

// IsWouldBlock reports whether err is the "no data available right now"
// condition from a non-blocking read.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
