// Command goboy is the SDL-backed front end: it loads a ROM (and
// optional boot ROM), wires it to a window/audio/keyboard host, and
// drives the emulator at 60 frames/sec. Flags are grounded on the
// teacher's cmd/goboy/main.go (-rom/-boot/-model), extended with -debug
// for the websocket state-streaming server and -save-every for the
// battery RAM/RTC persistence interval.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haldorsen/gbz80core/internal/debugserver"
	"github.com/haldorsen/gbz80core/internal/gameboy"
	"github.com/haldorsen/gbz80core/pkg/log"
	"github.com/haldorsen/gbz80core/pkg/saves"
	"github.com/haldorsen/gbz80core/pkg/sdlhost"
)

func main() {
	romPath := flag.String("rom", "", "the ROM file to load")
	bootPath := flag.String("boot", "", "the boot ROM file to load")
	model := flag.String("model", "auto", "model to emulate: auto, dmg or cgb")
	scale := flag.Int("scale", 3, "window scale factor")
	debugAddr := flag.String("debug", "", "address to serve the state-streaming debugger on, e.g. localhost:8090 (disabled if empty)")
	saveEvery := flag.Duration("save-every", 10*time.Second, "battery RAM save interval")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "goboy: -rom is required")
		os.Exit(2)
	}

	l := log.New("goboy")

	rom, err := os.ReadFile(*romPath)
	if err != nil {
		l.Fatalf("goboy: %v", err)
	}

	var bootROM []byte
	if *bootPath != "" {
		bootROM, err = os.ReadFile(*bootPath)
		if err != nil {
			l.Fatalf("goboy: %v", err)
		}
	}

	m := resolveModel(*model)

	sdlHost, err := sdlhost.Open(sdlhost.Options{Scale: *scale, Title: filepath.Base(*romPath), Log: l})
	if err != nil {
		l.Fatalf("goboy: %v", err)
	}
	defer sdlHost.Close()

	var opts []gameboy.Option
	opts = append(opts, gameboy.WithLogger(l))
	if len(bootROM) > 0 {
		opts = append(opts, gameboy.WithBootROM(bootROM))
	}

	gb, err := gameboy.New(rom, m, sdlHost, opts...)
	if err != nil {
		l.Fatalf("goboy: %v", err)
	}

	battery := openBattery(gb, *romPath, l)
	if battery != nil {
		defer battery.Close()
		defer battery.persist(gb)
	}

	var debugHub *debugserver.Hub
	if *debugAddr != "" {
		debugHub = debugserver.NewHub(l)
		stop := make(chan struct{})
		go debugHub.Run(stop)
		go func() {
			if err := http.ListenAndServe(*debugAddr, debugHub); err != nil {
				l.Warnf("goboy: debug server: %v", err)
			}
		}()
		defer close(stop)
	}

	lastSave := time.Now()
	for !sdlHost.Closed() {
		gb.StepFrame()
		if debugHub != nil {
			debugHub.Publish(gb.Snapshot())
		}
		if battery != nil && time.Since(lastSave) >= *saveEvery {
			battery.persist(gb)
			lastSave = time.Now()
		}
	}
}

func resolveModel(s string) gameboy.Model {
	switch strings.ToLower(s) {
	case "dmg":
		return gameboy.ModelDMG
	case "cgb":
		return gameboy.ModelCGB
	default:
		return gameboy.ModelCGB
	}
}

// battery bundles the open save file with the RTC tail bookkeeping
// needed to persist an MBC3 clock alongside RAM.
type battery struct {
	b      *saves.Battery
	hasRTC bool
}

func openBattery(gb *gameboy.GameBoy, romPath string, l log.Logger) *battery {
	ram := gb.BatteryRAM()
	if ram == nil {
		return nil
	}
	_, hasRTC := gb.RTCController()

	path := strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
	b, err := saves.Open(path, len(ram), hasRTC)
	if err != nil {
		l.Warnf("goboy: battery save disabled: %v", err)
		return nil
	}

	rtcTail := make([]byte, 0)
	if hasRTC {
		rtcTail = make([]byte, 48)
	}
	if err := b.Read(ram, nilIfEmpty(rtcTail)); err != nil {
		l.Warnf("goboy: battery load: %v", err)
	} else if hasRTC {
		rtc, _ := gb.RTCController()
		s, m, h, dl, dh, ls, lm, lh := saves.DecodeRTCTail(rtcTail)
		rtc.SetRTCRegisters(s, m, h, dl, dh, ls, lm, lh)
	}

	return &battery{b: b, hasRTC: hasRTC}
}

func (bt *battery) persist(gb *gameboy.GameBoy) {
	ram := gb.BatteryRAM()
	var tail []byte
	if bt.hasRTC {
		rtc, _ := gb.RTCController()
		s, m, h, dl, dh, ls, lm, lh := rtc.RTCRegisters()
		tail = saves.EncodeRTCTail(s, m, h, dl, dh, ls, lm, lh)
	}
	bt.b.Write(ram, tail)
}

func (bt *battery) Close() error {
	return bt.b.Close()
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
