//go:build linux

// Package uinput implements the output sink: a
// /dev/uinput virtual keyboard named "Keyrs (virtual) Keyboard" with all
// 0-255 key codes enabled, exposing the emitter.Sink interface.
package uinput

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/Danondso/keyrs/internal/keycode"
	"github.com/Danondso/keyrs/internal/keystore"
)

// DeviceName is the name advertised by the virtual keyboard; the
// autodetect heuristic in internal/device excludes devices with this
// prefix so keyrs never grabs its own output.
const DeviceName = "Keyrs (virtual) Keyboard"

const (
	evSyn = 0x00
	evKey = 0x01

	synReport = 0

	uiSetEvbit    = 0x40045564
	uiSetKeybit   = 0x40045565
	uiDevCreate   = 0x5501
	uiDevDestroy  = 0x5502
	uiDevSetup    = 0x405c5503
	uinputMaxName = 80
	busUSB        = 0x03
)

type uinputSetup struct {
	ID struct {
		Bustype uint16
		Vendor  uint16
		Product uint16
		Version uint16
	}
	Name      [uinputMaxName]byte
	FFEffects uint32
}

type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Sink is the uinput-backed implementation of emitter.Sink.
type Sink struct {
	fd int

	mu      sync.Mutex
	pressed []keycode.Key
}

// Open creates the virtual keyboard device. Requires write access to
// /dev/uinput (typically via membership in the "input" group).
func Open() (*Sink, error) {
	fd, err := unix.Open("/dev/uinput", unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("uinput: open /dev/uinput: %w (is the user in the input group?)", err)
	}

	s := &Sink{fd: fd}
	if err := s.ioctl(uiSetEvbit, evKey); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("uinput: UI_SET_EVBIT: %w", err)
	}
	for key := 0; key < 256; key++ {
		if err := s.ioctl(uiSetKeybit, uintptr(key)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("uinput: UI_SET_KEYBIT(%d): %w", key, err)
		}
	}

	var setup uinputSetup
	setup.ID.Bustype = busUSB
	setup.ID.Vendor = 0x4b59 // "KY"
	setup.ID.Product = 0x5253 // "RS"
	setup.ID.Version = 1
	copy(setup.Name[:], DeviceName)

	if err := s.ioctlPtr(uiDevSetup, unsafe.Pointer(&setup)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("uinput: UI_DEV_SETUP: %w", err)
	}
	if err := s.ioctl(uiDevCreate, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("uinput: UI_DEV_CREATE: %w", err)
	}

	// Give udev a moment to create the /dev/input/event* node before
	// anything tries to open it (e.g. an overly eager autodetect pass).
	time.Sleep(100 * time.Millisecond)
	return s, nil
}

func (s *Sink) ioctl(req, val uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), req, val)
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *Sink) ioctlPtr(req uintptr, ptr unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), req, uintptr(ptr))
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *Sink) writeRaw(evType, code uint16, value int32) error {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		return err
	}
	ev := inputEvent{Time: tv, Type: evType, Code: code, Value: value}
	buf := (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	_, err := unix.Write(s.fd, buf)
	return err
}

// Emit implements emitter.Sink: writes the key event followed by a SYN
// and updates the LIFO bookkeeping release_all needs.
func (s *Sink) Emit(key keycode.Key, action keystore.Action) error {
	if err := s.writeRaw(evKey, uint16(key), int32(action)); err != nil {
		return fmt.Errorf("uinput: write key %d: %w", key, err)
	}
	if err := s.writeRaw(evSyn, synReport, 0); err != nil {
		return fmt.Errorf("uinput: write syn: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch action {
	case keystore.ActionPress:
		s.pressed = append(s.pressed, key)
	case keystore.ActionRelease:
		for i := len(s.pressed) - 1; i >= 0; i-- {
			if s.pressed[i] == key {
				s.pressed = append(s.pressed[:i], s.pressed[i+1:]...)
				break
			}
		}
	}
	return nil
}

// ReleaseAll implements emitter.Sink's idempotent LIFO release-all.
// Calling it twice in a row is a no-op the second time, since
// the bookkeeping is cleared before the Releases are written.
func (s *Sink) ReleaseAll() error {
	s.mu.Lock()
	pending := append([]keycode.Key(nil), s.pressed...)
	s.pressed = nil
	s.mu.Unlock()

	var firstErr error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := s.Emit(pending[i], keystore.ActionRelease); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close destroys the virtual device.
func (s *Sink) Close() error {
	s.ioctl(uiDevDestroy, 0)
	return unix.Close(s.fd)
}
