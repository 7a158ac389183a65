// ABOUTME: Entry point for the mixdeck playback tool
// ABOUTME: Parses CLI flags, loads a file into an engine slot and runs the TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mixdeck-audio/mixdeck-go/internal/ui"
	"github.com/mixdeck-audio/mixdeck-go/internal/version"
	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
	"github.com/mixdeck-audio/mixdeck-go/pkg/audio/output"
	"github.com/mixdeck-audio/mixdeck-go/pkg/core"
)

var (
	formatHint = flag.String("format", "", "Format hint (wav, mp3, ogg, flac); default: file extension")
	backend    = flag.String("backend", "oto", "Output backend: oto or malgo")
	loop       = flag.Bool("loop", false, "Repeat the clip until stopped")
	volume     = flag.Int("volume", 100, "Initial volume in percent (0-100)")
	master     = flag.Int("master", 100, "Master volume in percent (0-100)")
	panning    = flag.Float64("pan", 0, "Stereo panning, -1 (left) to 1 (right)")
	speed      = flag.Float64("speed", 1.0, "Playback rate, 1.0 is normal")
	pollMs     = flag.Int("poll-ms", 0, "Engine poll interval in milliseconds (0: default)")
	logFile    = flag.String("log-file", "mixdeck-play.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, play to completion with streaming logs")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <audio-file>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	useTUI := !*noTUI

	// Set up logging. TUI mode logs only to the file so the screen stays
	// clean; streaming mode mirrors to stdout.
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("%s %s starting", version.Product, version.Version)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading %s: %v", path, err)
	}

	hint := *formatHint
	if hint == "" {
		hint = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	device, err := openDevice(*backend)
	if err != nil {
		log.Fatalf("opening %s backend: %v", *backend, err)
	}

	engine, err := core.New(core.Config{
		Device:       device,
		PollInterval: time.Duration(*pollMs) * time.Millisecond,
		MasterVolume: float64(*master) / 100.0,
	})
	if err != nil {
		log.Fatalf("starting engine: %v", err)
	}
	defer engine.Shutdown()

	h, err := engine.CreateSlot(data, hint, *loop)
	if err != nil {
		log.Fatalf("loading %s: %v", path, err)
	}

	if err := engine.Configure(h, float64(*volume)/100.0, *speed, *panning); err != nil {
		log.Fatalf("configuring slot: %v", err)
	}
	if _, err := engine.Play(h); err != nil {
		log.Fatalf("starting playback: %v", err)
	}

	if dur, err := engine.DurationMs(h); err == nil && dur > 0 {
		log.Printf("playing %s (%s, %.1fs)", filepath.Base(path), hint, dur/1000)
	} else {
		log.Printf("playing %s (%s)", filepath.Base(path), hint)
	}

	if useTUI {
		runTUI(engine, h, path, hint)
	} else {
		runHeadless(engine, h)
	}

	log.Printf("player stopped")
}

// openDevice selects the output backend by name.
func openDevice(name string) (output.Device, error) {
	switch name {
	case "oto":
		return output.NewOto()
	case "malgo":
		return output.NewMalgo()
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// runTUI blocks inside the TUI until the user quits.
func runTUI(engine *core.Engine, h core.Handle, path, hint string) {
	err := ui.Run(engine, h, ui.Options{
		FileName: filepath.Base(path),
		Format:   hint,
		Repeat:   *loop,
		Volume:   *volume,
		Panning:  *panning,
		Speed:    *speed,
	})
	if err != nil {
		log.Printf("TUI error: %v", err)
	}
}

// runHeadless waits for the clip to finish or for a shutdown signal.
func runHeadless(engine *core.Engine, h core.Handle) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			log.Printf("shutdown signal received")
			return
		case <-ticker.C:
			st, err := engine.Status(h)
			if err != nil {
				log.Printf("slot gone: %v", err)
				return
			}
			switch st.State {
			case audio.StateFinished:
				log.Printf("playback finished")
				return
			case audio.StateError:
				log.Printf("playback failed")
				return
			}
		}
	}
}
