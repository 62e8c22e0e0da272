// Package device implements the event reader: a
// multi-device evdev aggregator with autodetect, explicit/config device
// filtering, and exclusive grab-on-start/ungrab-on-stop semantics.
package device

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	evdev "github.com/holoplot/go-evdev"

	"github.com/Danondso/keyrs/internal/keycode"
	"github.com/Danondso/keyrs/internal/keystore"
)

// virtualDevicePrefix excludes the emitter's own uinput device from
// autodetection, so keyrs never grabs the keyboard it creates.
const virtualDevicePrefix = "Keyrs (virtual)"

// autodetectCapableCodes is the letter/space autodetect heuristic: a real
// keyboard claims Q,W,E,R,T,Y and A,Z,SPACE.
var autodetectCapableCodes = []evdev.EvCode{16, 17, 18, 19, 20, 21, 30, 44, 57}

// Event is one aggregated (device_name, key_code, value) tuple.
type Event struct {
	Device string
	Key    keycode.Key
	Action keystore.Action
}

// Reader fans in events from one or more grabbed evdev devices.
type Reader struct {
	devices []*evdev.InputDevice
	names   []string

	events chan Event
	errs   chan error

	wg       sync.WaitGroup
	stopping int32
}

// Open resolves the device set by precedence (explicit CLI names
// beat config `[devices].only` beat autodetect), grabs each device for
// exclusive access, and returns a Reader ready to Start.
func Open(explicit, configOnly []string) (*Reader, error) {
	paths, err := resolvePaths(explicit, configOnly)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("device: no matching keyboard device found")
	}

	r := &Reader{
		events: make(chan Event, 64),
		errs:   make(chan error, 1),
	}
	for _, p := range paths {
		dev, err := evdev.Open(p)
		if err != nil {
			r.closeAll()
			return nil, fmt.Errorf("device: opening %s: %w", p, err)
		}
		name, _ := dev.Name()
		if err := grabWithRetry(dev); err != nil {
			_ = dev.Close()
			r.closeAll()
			return nil, fmt.Errorf("device: grabbing %s (%s): %w", p, name, err)
		}
		r.devices = append(r.devices, dev)
		r.names = append(r.names, name)
	}
	return r, nil
}

// grabWithRetry attempts an ungrab and a single retry
// for device grab failures.
func grabWithRetry(dev *evdev.InputDevice) error {
	if err := dev.Grab(); err != nil {
		_ = dev.Ungrab()
		if err := dev.Grab(); err != nil {
			return err
		}
	}
	return nil
}

// resolvePaths applies the explicit > config-only > autodetect
// precedence and resolves bare device names to /dev/input/event* paths.
func resolvePaths(explicit, configOnly []string) ([]string, error) {
	if len(explicit) > 0 {
		return resolveNamedOrPath(explicit)
	}
	if len(configOnly) > 0 {
		return resolveNamedOrPath(configOnly)
	}
	return autodetect()
}

func resolveNamedOrPath(names []string) ([]string, error) {
	all, err := listEventPaths()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, want := range names {
		if strings.HasPrefix(want, "/dev/input/") {
			out = append(out, want)
			continue
		}
		matched := false
		for _, p := range all {
			dev, err := evdev.Open(p)
			if err != nil {
				continue
			}
			name, _ := dev.Name()
			_ = dev.Close()
			if name == want {
				out = append(out, p)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("device: no device found matching %q", want)
		}
	}
	return out, nil
}

// autodetect scans /dev/input/event* for devices matching the
// Q/W/E/R/T/Y + A/Z/SPACE heuristic, excluding the virtual output device.
func autodetect() ([]string, error) {
	all, err := listEventPaths()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range all {
		dev, err := evdev.Open(p)
		if err != nil {
			continue
		}
		name, _ := dev.Name()
		ok := !strings.HasPrefix(name, virtualDevicePrefix) && isAutodetectKeyboard(dev)
		_ = dev.Close()
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func isAutodetectKeyboard(dev *evdev.InputDevice) bool {
	hasKey := false
	for _, t := range dev.CapableTypes() {
		if t == evdev.EV_KEY {
			hasKey = true
			break
		}
	}
	if !hasKey {
		return false
	}
	capable := make(map[evdev.EvCode]bool)
	for _, c := range dev.CapableEvents(evdev.EV_KEY) {
		capable[c] = true
	}
	for _, want := range autodetectCapableCodes {
		if !capable[want] {
			return false
		}
	}
	return true
}

func listEventPaths() ([]string, error) {
	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("device: glob /dev/input/event*: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(matches[i], "/dev/input/event"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(matches[j], "/dev/input/event"))
		return ni < nj
	})
	return matches, nil
}

// Start launches one reader goroutine per grabbed device, fanning their
// events into the shared channel. The stopping flag distinguishes an
// expected-on-shutdown read error from an unexpected one.
func (r *Reader) Start() {
	for i, dev := range r.devices {
		r.wg.Add(1)
		go r.listenDevice(dev, r.names[i])
	}
}

func (r *Reader) listenDevice(dev *evdev.InputDevice, name string) {
	defer r.wg.Done()
	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if atomic.LoadInt32(&r.stopping) == 1 {
				return
			}
			select {
			case r.errs <- fmt.Errorf("device: reading from %s: %w", name, err):
			default:
			}
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		select {
		case r.events <- Event{Device: name, Key: keycode.Key(ev.Code), Action: keystore.Action(ev.Value)}:
		default:
			// Backpressure on the aggregate channel means keys are
			// arriving faster than the driver can process them; drop
			// rather than block the read loop indefinitely.
		}
	}
}

// Events returns the channel events are delivered on.
func (r *Reader) Events() <-chan Event { return r.events }

// Errs returns the channel a fatal per-device read error is delivered
// on, at most once.
func (r *Reader) Errs() <-chan error { return r.errs }

// Names returns the resolved device names, for log output and the
// --watch TUI's device list.
func (r *Reader) Names() []string { return append([]string(nil), r.names...) }

// Stop ungrabs and closes every device and waits for the reader
// goroutines to exit, even if called from a recover() after a panic.
func (r *Reader) Stop() error {
	atomic.StoreInt32(&r.stopping, 1)
	var firstErr error
	for _, dev := range r.devices {
		if err := dev.Ungrab(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("device: ungrab: %w", err)
		}
		if err := dev.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("device: close: %w", err)
		}
	}
	r.wg.Wait()
	return firstErr
}

func (r *Reader) closeAll() {
	for _, dev := range r.devices {
		_ = dev.Ungrab()
		_ = dev.Close()
	}
}

// ListAll describes every /dev/input/event* device for --list-devices,
// reporting its name and whether the autodetect heuristic would select
// it.
type ListAll struct {
	Path       string
	Name       string
	Autodetect bool
}

func ListDevices() ([]ListAll, error) {
	paths, err := listEventPaths()
	if err != nil {
		return nil, err
	}
	out := make([]ListAll, 0, len(paths))
	for _, p := range paths {
		dev, err := evdev.Open(p)
		if err != nil {
			continue
		}
		name, _ := dev.Name()
		out = append(out, ListAll{
			Path:       p,
			Name:       name,
			Autodetect: !strings.HasPrefix(name, virtualDevicePrefix) && isAutodetectKeyboard(dev),
		})
		_ = dev.Close()
	}
	return out, nil
}
