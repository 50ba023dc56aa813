// ABOUTME: Entry point for the noisemaker tone generator
// ABOUTME: Parses CLI flags, starts the audio engine and optional status surfaces
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/noisemaker-go/internal/config"
	"github.com/Resonate-Protocol/noisemaker-go/internal/discovery"
	"github.com/Resonate-Protocol/noisemaker-go/internal/monitor"
	"github.com/Resonate-Protocol/noisemaker-go/internal/ui"
	"github.com/Resonate-Protocol/noisemaker-go/internal/version"
	"github.com/Resonate-Protocol/noisemaker-go/pkg/engine"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var (
	configPath   = flag.String("config", "", "YAML configuration file")
	backend      = flag.String("backend", "oto", "Output backend: oto, malgo, portaudio, null")
	device       = flag.String("device", "", "Output device name (default: first device)")
	listDevices  = flag.Bool("list", false, "List output devices and exit")
	sampleRate   = flag.Int("rate", engine.DefaultSampleRate, "Sample rate in Hz")
	channels     = flag.Int("channels", engine.DefaultChannels, "Output channels")
	bitDepth     = flag.Int("bits", engine.DefaultBitDepth, "Bit depth: 8, 16, 24, 32")
	blocks       = flag.Int("blocks", engine.DefaultBlockCount, "Number of blocks in the pool")
	blockSamples = flag.Int("block-samples", engine.DefaultBlockSamples, "Frames per block")
	wave         = flag.String("wave", "sine", "Waveform: sine, square, triangle, saw, silence")
	freq         = flag.Float64("freq", 440, "Tone frequency in Hz")
	amp          = flag.Float64("amp", 0.5, "Tone amplitude (0-1, higher clips)")
	gain         = flag.Float64("gain", 1, "Output gain applied to the summed tone")
	monitorAddr  = flag.String("monitor", "", "Serve status on this address (e.g. :8930)")
	enableMDNS   = flag.Bool("mdns", false, "Advertise the monitor via mDNS")
	name         = flag.String("name", "", "Instance name for the monitor (default: hostname)")
	logFile      = flag.String("log-file", "noisemaker.log", "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	driver, err := newDriver(cfg.Audio.Backend)
	if err != nil {
		log.Fatalf("Failed to create %s backend: %v", cfg.Audio.Backend, err)
	}
	defer closeDriver(driver)

	if *listDevices {
		names, err := engine.Devices(driver)
		if err != nil {
			log.Fatalf("Failed to list devices: %v", err)
		}
		for i, n := range names {
			fmt.Printf("%d: %s\n", i, n)
		}
		return
	}

	// Determine if we should use TUI or streaming logs
	useTUI := !*noTUI && term.IsTerminal(int(os.Stdout.Fd()))

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s", version.String())

	waveform, err := cfg.Tone.Waveform()
	if err != nil {
		log.Fatalf("Invalid tone: %v", err)
	}

	ecfg := cfg.Engine()
	ecfg.Waveform = waveform
	eng := engine.New(driver, ecfg)

	if err := eng.Start(); err != nil {
		log.Fatalf("Failed to start audio engine: %v", err)
	}

	// Status endpoint
	var mon *monitor.Server
	var disc *discovery.Manager
	if cfg.Monitor.Addr != "" {
		mon = monitor.New(monitor.Config{
			Addr:     cfg.Monitor.Addr,
			Name:     cfg.Monitor.Name,
			Interval: cfg.Interval(),
		}, eng)
		if err := mon.Start(); err != nil {
			log.Printf("Failed to start monitor: %v", err)
			mon = nil
		}
	}
	if mon != nil && cfg.Monitor.MDNS {
		st := eng.Stats()
		disc = discovery.NewManager(discovery.Config{
			ServiceName: cfg.Monitor.Name,
			Port:        mon.Port(),
			Info:        []string{"backend=" + st.Backend, "format=" + st.Format},
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	go forwardErrors(eng, mon)

	// TUI setup
	var tuiProg *tea.Program
	var toneCtrl *ui.ToneControl
	if useTUI {
		toneCtrl = ui.NewToneControl()
		tone := ui.ToneChangeMsg{Shape: cfg.Tone.Shape, Frequency: cfg.Tone.Frequency, Amplitude: cfg.Tone.Amplitude}
		tuiProg, err = ui.Run(toneCtrl, tone, eng.Stats)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go handleToneControl(eng, cfg.Tone, toneCtrl)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for quit signal from TUI or OS
	if toneCtrl != nil {
		select {
		case <-toneCtrl.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
		tuiProg.Quit()
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	if disc != nil {
		disc.Stop()
	}
	if mon != nil {
		mon.Stop()
	}
	if err := eng.Stop(); err != nil {
		log.Printf("Error stopping engine: %v", err)
	}

	log.Printf("Noisemaker stopped")
}

// loadConfig merges the config file (if any) with explicitly set flags
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Audio.Backend = *backend
		case "device":
			cfg.Audio.Device = *device
		case "rate":
			cfg.Audio.SampleRate = *sampleRate
		case "channels":
			cfg.Audio.Channels = *channels
		case "bits":
			cfg.Audio.BitDepth = *bitDepth
		case "blocks":
			cfg.Audio.Blocks = *blocks
		case "block-samples":
			cfg.Audio.BlockSamples = *blockSamples
		case "wave":
			cfg.Tone.Shape = *wave
		case "freq":
			cfg.Tone.Frequency = *freq
		case "amp":
			cfg.Tone.Amplitude = *amp
		case "gain":
			cfg.Tone.Gain = *gain
		case "monitor":
			cfg.Monitor.Addr = *monitorAddr
		case "mdns":
			cfg.Monitor.MDNS = *enableMDNS
		case "name":
			cfg.Monitor.Name = *name
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// handleToneControl applies tone changes from the TUI
func handleToneControl(eng *engine.Engine, base config.Tone, toneCtrl *ui.ToneControl) {
	for change := range toneCtrl.Changes {
		tone := base
		tone.Shape = change.Shape
		tone.Frequency = change.Frequency
		tone.Amplitude = change.Amplitude

		w, err := tone.Waveform()
		if err != nil {
			log.Printf("Ignoring tone change: %v", err)
			continue
		}
		log.Printf("Tone change: %s %.2fHz amplitude %.2f", tone.Shape, tone.Frequency, tone.Amplitude)
		eng.SetWaveform(w)
	}
}

// forwardErrors publishes engine runtime errors to monitor subscribers
func forwardErrors(eng *engine.Engine, mon *monitor.Server) {
	for err := range eng.Errors() {
		if mon == nil {
			continue
		}
		report := monitor.ErrorReport{Message: err.Error(), Time: eng.Time()}
		mon.Publish(monitor.Message{Type: monitor.TypeError, Payload: report})
	}
}
