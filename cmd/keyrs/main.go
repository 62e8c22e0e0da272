package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/keyrs/internal/config"
	"github.com/Danondso/keyrs/internal/device"
	"github.com/Danondso/keyrs/internal/emitter"
	"github.com/Danondso/keyrs/internal/engine"
	"github.com/Danondso/keyrs/internal/keycode"
	"github.com/Danondso/keyrs/internal/keystore"
	"github.com/Danondso/keyrs/internal/tui"
	"github.com/Danondso/keyrs/internal/uinput"
	"github.com/Danondso/keyrs/internal/windowprovider"
)

// deviceList is a flag.Value collecting --devices NAME (repeatable).
type deviceList []string

func (d *deviceList) String() string     { return strings.Join(*d, ",") }
func (d *deviceList) Set(s string) error { *d = append(*d, s); return nil }

func main() {
	var (
		configPath  = flag.String("config", "", "path to config.toml (default: "+config.DefaultPath()+")")
		devices     deviceList
		watch       = flag.Bool("watch", false, "show the live status TUI")
		verbose     = flag.Bool("verbose", false, "enable verbose logging to stderr")
		checkConfig = flag.Bool("check-config", false, "parse the config, report any dropped mappings, and exit")
		listDevices = flag.Bool("list-devices", false, "list /dev/input/event* devices and exit")
	)
	flag.Var(&devices, "devices", "explicit device name or path (repeatable)")
	flag.Parse()

	dbg := log.New(io.Discard, "[keyrs] ", log.Ltime|log.Lmicroseconds)
	if *verbose && !*watch {
		dbg.SetOutput(os.Stderr)
	}

	if *listDevices {
		os.Exit(runListDevices())
	}

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	built, err := config.BuildEngineConfig(cfg)
	if err != nil {
		log.Fatalf("build engine config: %v", err)
	}
	for _, d := range built.Dropped {
		log.Printf("WARNING: dropped mapping %s[%s]: %s", d.Table, d.Name, d.Reason)
	}

	if *checkConfig {
		code := runCheckConfig(cfg, built)
		if !*watch || code != 0 {
			os.Exit(code)
		}
		// --watch alongside --check-config: fall through into the live
		// loop instead of exiting after reporting.
	}

	settings, err := config.LoadSettings(config.DefaultSettingsPath())
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	ks := keystore.NewKeystore()
	win := engine.NewWindowContext()
	win.ReplaceSettings(settings.ToMap())
	eng := engine.New(built.Engine, ks, win)

	sink, err := uinput.Open()
	if err != nil {
		log.Fatalf("open uinput sink: %v", err)
	}

	em := emitter.New(sink, emitter.Delays{
		KeyPreDelayMs:  cfg.Delays.KeyPreDelayMs,
		KeyPostDelayMs: cfg.Delays.KeyPostDelayMs,
	})

	reader, err := device.Open(devices, cfg.Devices.Only)
	if err != nil {
		log.Fatalf("open input devices: %v", err)
	}
	dbg.Printf("grabbed devices: %v", reader.Names())
	reader.Start()

	pollInterval := time.Duration(cfg.Window.UpdateIntervalMs) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	provider := windowprovider.NewAuto(pollInterval, win)
	if err := provider.Connect(); err != nil {
		dbg.Printf("window-context provider unavailable, conditions on wm_class/wm_name will not match: %v", err)
	}

	var diagnosticsKey, ejectKey keycode.Key
	var hasDiagnosticsKey, hasEjectKey bool
	if cfg.General.DiagnosticsKey != "" {
		diagnosticsKey, hasDiagnosticsKey = keycode.KeyFromName(cfg.General.DiagnosticsKey)
	}
	if cfg.General.EmergencyEjectKey != "" {
		ejectKey, hasEjectKey = keycode.KeyFromName(cfg.General.EmergencyEjectKey)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	cleanup := func() {
		_ = em.ReleaseAll()
		_ = reader.Stop()
		provider.Disconnect()
		_ = sink.Close()
	}

	loop := &eventLoop{
		eng:               eng,
		em:                em,
		reader:            reader,
		win:               win,
		dbg:               dbg,
		sigCh:             sigCh,
		diagnosticsKey:    diagnosticsKey,
		hasDiagnosticsKey: hasDiagnosticsKey,
		ejectKey:          ejectKey,
		hasEjectKey:       hasEjectKey,
	}

	if !*watch {
		loop.shutdown = func(code int) {
			cleanup()
			os.Exit(code)
		}
		defer func() {
			if r := recover(); r != nil {
				dbg.Printf("panic in event loop, ungrabbing and releasing before propagating: %v", r)
				cleanup()
				panic(r)
			}
		}()
		loop.run()
		return
	}

	// --watch: drive the event loop on a background goroutine and run the
	// Bubble Tea status view on the main goroutine: active keymap stack,
	// suspend state, recent events, devices.
	model := tui.NewModel(reader.Names(), dbg)
	var exitCode int32
	var program *tea.Program
	quit := func(code int) {
		atomic.StoreInt32(&exitCode, int32(code))
		cleanup()
		if program != nil {
			program.Quit()
		}
	}
	model.OnQuit = func() { quit(0) }
	program = tea.NewProgram(model, tea.WithAltScreen())
	loop.shutdown = quit
	loop.program = program
	dbg.SetOutput(tui.NewLogWriter(program))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				dbg.Printf("panic in event loop, ungrabbing and releasing before propagating: %v", r)
				cleanup()
				atomic.StoreInt32(&exitCode, 1)
				if program != nil {
					program.Quit()
				}
			}
		}()
		loop.run()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		atomic.StoreInt32(&exitCode, 1)
	}
	os.Exit(int(atomic.LoadInt32(&exitCode)))
}

// eventLoop holds everything the core read/process/emit loop needs, shared
// between the headless driver and the --watch TUI driver.
type eventLoop struct {
	eng    *engine.Engine
	em     *emitter.Emitter
	reader *device.Reader
	win    *engine.WindowContext
	dbg    *log.Logger
	sigCh  chan os.Signal

	diagnosticsKey    keycode.Key
	hasDiagnosticsKey bool
	ejectKey          keycode.Key
	hasEjectKey       bool

	// program is non-nil only under --watch; when set, status/event/device
	// snapshots are forwarded into the TUI as they happen.
	program *tea.Program

	shutdown func(code int)
}

func (l *eventLoop) send(msg tea.Msg) {
	if l.program != nil {
		l.program.Send(msg)
	}
}

func (l *eventLoop) run() {
	diagnosticsOn := false
	statusTicker := time.NewTicker(250 * time.Millisecond)
	defer statusTicker.Stop()
	timeoutTicker := time.NewTicker(25 * time.Millisecond)
	defer timeoutTicker.Stop()

	for {
		select {
		case sig := <-l.sigCh:
			switch sig {
			case syscall.SIGHUP:
				reloaded, err := config.LoadSettings(config.DefaultSettingsPath())
				if err != nil {
					l.dbg.Printf("settings reload failed, keeping previous settings: %v", err)
					continue
				}
				l.win.ReplaceSettings(reloaded.ToMap())
				l.dbg.Printf("settings reloaded")
			default:
				l.dbg.Printf("received %s, shutting down", sig)
				l.shutdown(0)
				return
			}

		case err := <-l.reader.Errs():
			l.dbg.Printf("device read error: %v", err)
			l.shutdown(1)
			return

		case <-statusTicker.C:
			l.send(tui.StatusMsg{
				Suspended:     l.eng.Suspended(),
				ActiveKeymaps: l.eng.ActiveKeymapNames(time.Now()),
			})

		case <-timeoutTicker.C:
			for _, ev := range l.eng.CheckMultipurposeTimeouts(time.Now()) {
				if err := l.em.Apply(ev); err != nil {
					l.dbg.Printf("emit error: %v", err)
				}
			}

		case raw, ok := <-l.reader.Events():
			if !ok {
				l.shutdown(0)
				return
			}
			l.win.SetDeviceName(raw.Device)

			if l.hasEjectKey && raw.Key == l.ejectKey && raw.Action == keystore.ActionPress {
				l.dbg.Printf("emergency eject pressed, releasing all keys and exiting")
				l.shutdown(0)
				return
			}
			if l.hasDiagnosticsKey && raw.Key == l.diagnosticsKey && raw.Action == keystore.ActionPress {
				diagnosticsOn = !diagnosticsOn
				l.dbg.Printf("diagnostics logging %v", diagnosticsOn)
				continue
			}

			events := l.eng.ProcessEvent(raw.Key, raw.Action)
			if diagnosticsOn {
				l.dbg.Printf("event: device=%s key=%d action=%d -> %d result(s)", raw.Device, raw.Key, raw.Action, len(events))
			}
			for _, ev := range events {
				if err := l.em.Apply(ev); err != nil {
					l.dbg.Printf("emit error: %v", err)
				}
				l.send(tui.EventMsg{Entry: tui.EventEntry{
					Device: raw.Device,
					Key:    strconv.Itoa(int(raw.Key)),
					Action: actionName(raw.Action),
					Result: ev.Result.Kind.String(),
				}})
			}
			for _, ev := range l.eng.CheckMultipurposeTimeouts(time.Now()) {
				if err := l.em.Apply(ev); err != nil {
					l.dbg.Printf("emit error: %v", err)
				}
			}
		}
	}
}

func actionName(a keystore.Action) string {
	switch a {
	case keystore.ActionRelease:
		return "release"
	case keystore.ActionPress:
		return "press"
	case keystore.ActionRepeat:
		return "repeat"
	default:
		return "?"
	}
}

func runListDevices() int {
	devs, err := device.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list devices: %v\n", err)
		return 1
	}
	for _, d := range devs {
		fmt.Printf("%s\t%-40s autodetect=%v\n", d.Path, d.Name, d.Autodetect)
	}
	return 0
}

func runCheckConfig(cfg config.Config, built config.BuildResult) int {
	var report strings.Builder
	fmt.Fprintf(&report, "config OK: %d default modmap entries, %d conditional modmaps, %d multipurpose triggers, %d keymaps\n",
		len(cfg.Modmap.Default), len(cfg.Modmap.Conditionals), len(cfg.Multipurpose), len(cfg.Keymap))

	if len(built.Dropped) == 0 {
		fmt.Fprintln(&report, "no mappings were dropped")
	} else {
		fmt.Fprintf(&report, "%d mapping(s) dropped:\n", len(built.Dropped))
		for _, d := range built.Dropped {
			fmt.Fprintf(&report, "  %s[%s]: %s\n", d.Table, d.Name, d.Reason)
		}
	}

	fmt.Print(report.String())
	if err := clipboard.WriteAll(report.String()); err != nil {
		fmt.Fprintf(os.Stderr, "(could not copy report to clipboard: %v)\n", err)
	} else {
		fmt.Println("(report copied to clipboard)")
	}

	if len(built.Dropped) > 0 {
		return 1
	}
	return 0
}
