// dusklinedemo drives a duskline.Host against a terminal or a file,
// painting a small animated grid and optionally recording a render
// trace.
//
// Usage:
//
//	dusklinedemo [flags]
//
// Flags:
//
//	-width int       Grid width (default: detected terminal width)
//	-height int      Grid height (default: detected terminal height)
//	-frames int      Number of frames to render before exiting (default 60)
//	-trace string    Path to write a JSONL render trace to (default: disabled)
//	-config string   Path to configuration file
//	-verbose         Enable verbose logging
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/duskline/duskline"
)

func main() {
	var (
		width      = flag.Int("width", 0, "Grid width (0 = auto-detect)")
		height     = flag.Int("height", 0, "Grid height (0 = auto-detect)")
		frameCount = flag.Int("frames", 60, "Number of frames to render")
		tracePath  = flag.String("trace", "", "Path to write a JSONL render trace")
		configPath = flag.String("config", "", "Path to configuration file")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := duskline.NewLogger(os.Stderr, *verbose)

	var cfg *duskline.Config
	var err error
	if *configPath != "" {
		cfg, err = duskline.LoadFromFile(*configPath)
	} else {
		cfg, err = duskline.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "duskline: invalid config: %v\n", err)
		os.Exit(1)
	}

	fd := duskline.Stdout()
	caps := cfg.Capabilities.Apply(duskline.Detect(fd))

	w, h := *width, *height
	if w == 0 || h == 0 {
		dw, dh, sizeErr := duskline.GetSize(fd)
		if sizeErr == nil {
			if w == 0 {
				w = dw
			}
			if h == 0 {
				h = dh
			}
		}
	}
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}

	runStart := time.Now()
	var trace *duskline.RenderTraceRecorder
	var traceFile *os.File
	if *tracePath != "" || cfg.Trace.Enabled {
		path := *tracePath
		if path == "" {
			path = cfg.Trace.Path
		}
		traceFile, err = os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "duskline: failed to create trace file: %v\n", err)
			os.Exit(1)
		}
		defer traceFile.Close()

		trace = duskline.NewRenderTraceRecorder(traceFile, duskline.NewMemoryPayloadStore())
		startTsMs := uint64(runStart.UnixMilli())
		if err := trace.WriteHeader("dusklinedemo", caps, cfg.Diff.ToDiffConfig(), "", duskline.HeaderOptions{StartTsMs: &startTsMs}); err != nil {
			fmt.Fprintf(os.Stderr, "duskline: failed to write trace header: %v\n", err)
			os.Exit(1)
		}
	}

	host := duskline.NewHost(duskline.HostOptions{
		Width:        w,
		Height:       h,
		Output:       os.Stdout,
		Capabilities: caps,
		DiffConfig:   cfg.Diff.ToDiffConfig(),
		FlowControl:  cfg.FlowControl.ToFlowControlConfig(),
		Trace:        trace,
		Logger:       logger,
	})

	stdin := duskline.Stdin()
	if duskline.IsTerminal(stdin) {
		oldState, rawErr := duskline.MakeRaw(stdin)
		if rawErr != nil {
			fmt.Fprintf(os.Stderr, "duskline: failed to enter raw mode: %v\n", rawErr)
			os.Exit(1)
		}
		defer duskline.Restore(stdin, oldState)
	}

	os.Stdout.WriteString(duskline.HideCursor())
	defer os.Stdout.WriteString(duskline.ShowCursor())

	for i := 0; i < *frameCount; i++ {
		paintFrame(host, i, w, h)

		snapshot := duskline.FlowControlSnapshot{}
		result, err := host.Frame(snapshot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "duskline: frame %d failed: %v\n", i, err)
			os.Exit(1)
		}
		logger.Debug("frame presented", "i", i, "bytes", result.Presenter.BytesEmitted, "cells", result.Presenter.CellsChanged)

		time.Sleep(16 * time.Millisecond)
	}

	if trace != nil {
		elapsedMs := uint64(time.Since(runStart).Milliseconds())
		if err := trace.WriteSummary(&elapsedMs); err != nil {
			fmt.Fprintf(os.Stderr, "duskline: failed to write trace summary: %v\n", err)
		}
	}
}

// paintFrame draws a moving diagonal band across the grid, cycling
// through a handful of colors, to exercise the diff engine with
// partial, localized changes frame to frame.
func paintFrame(host *duskline.Host, frame, width, height int) {
	grid := host.NextGrid()
	colors := []duskline.RGBA{
		duskline.RGB(220, 50, 47), duskline.RGB(38, 139, 210),
		duskline.RGB(133, 153, 0), duskline.RGB(181, 137, 0),
	}
	color := colors[frame%len(colors)]

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+frame)%width == y%width {
				grid.Set(x, y, duskline.NewCodepointCell('#').WithFg(color))
			} else {
				grid.Set(x, y, duskline.NewCodepointCell(' '))
			}
		}
	}
}

