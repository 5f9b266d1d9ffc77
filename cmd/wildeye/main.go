// Wildeye - live alternate-species vision pipeline
//
// Reads camera frames, runs the active vision filter chain on each
// one, serves a live preview over websocket, and records the filtered
// stream to MP4 on request.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/kindredlens/go-wildeye/internal/config"
	"github.com/kindredlens/go-wildeye/internal/log"
	"github.com/kindredlens/go-wildeye/pkg/camera"
	"github.com/kindredlens/go-wildeye/pkg/capture"
	"github.com/kindredlens/go-wildeye/pkg/debug"
	"github.com/kindredlens/go-wildeye/pkg/pipeline"
	"github.com/kindredlens/go-wildeye/pkg/recorder"
	"github.com/kindredlens/go-wildeye/pkg/vision"
	"github.com/kindredlens/go-wildeye/pkg/web"
)

// device is the common surface of the real and synthetic cameras.
type device interface {
	pipeline.Source
	camera.Device
	Facing() camera.Facing
	Close() error
}

func main() {
	synthetic := flag.Bool("synthetic", false, "use the synthetic frame generator instead of a camera")
	debugFrames := flag.Bool("debug-frames", false, "log per-frame timing (very verbose)")
	flag.Parse()

	log.Init(config.LogLevel())
	debug.Frames = *debugFrames

	modeName := config.Mode()
	mode, err := vision.Parse(modeName)
	if err != nil {
		log.Error("bad WILDEYE_MODE", "mode", modeName, "err", err)
		os.Exit(1)
	}

	var dev device
	if *synthetic {
		dev = camera.NewSynthetic(640, 480, 30)
	} else {
		cfg := camera.DefaultConfig()
		cfg.BackIndex = config.CameraIndex("WILDEYE_BACK_CAMERA", 0)
		cfg.FrontIndex = config.CameraIndex("WILDEYE_FRONT_CAMERA", -1)
		d, err := camera.Open(cfg)
		if err != nil {
			log.Error("camera open failed", "err", err)
			os.Exit(1)
		}
		dev = d
	}
	defer dev.Close()

	fs := afero.NewOsFs()
	outDir := config.OutputDir()

	rec := recorder.New(fs, outDir, recorder.NewMP4Encoder)
	saver := capture.NewSaver(fs, outDir)
	controller := camera.NewController(dev, dev.Facing())

	var proc *pipeline.Processor

	server := web.NewServer(config.Port(), web.Controls{
		SetMode: func(name string) error {
			m, err := vision.Parse(name)
			if err != nil {
				return err
			}
			proc.SetMode(m)
			return nil
		},
		StillCapture: func() { proc.RequestStillCapture() },
		StartRecord:  func() { proc.RequestRecordingStart() },
		StopRecord:   func() { proc.RequestRecordingStop() },
		SwitchCamera: func() { proc.RequestCameraSwitch() },
		ApplyZoom:    controller.ApplyZoom,
		Snapshot: func() web.PipelineState {
			w, h := proc.NativeResolution()
			return web.PipelineState{
				Mode:      proc.Mode().String(),
				Recording: rec.Active(),
				Facing:    controller.Facing().String(),
				Zoom:      controller.Zoom(),
				Width:     w,
				Height:    h,
			}
		},
	})

	proc = pipeline.New(pipeline.Options{
		Preview:  server,
		Capture:  saver,
		Recorder: rec,
		Camera:   controller,
		Mode:     mode,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for res := range rec.Done() {
			if res.Err != nil {
				log.Error("recording failed", "path", res.Path, "err", res.Err)
				continue
			}
			server.NoteRecordingFinished(res.Path)
		}
	}()

	server.StartAsync()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		proc.RequestRecordingStop()
		cancel()
	}()

	log.Info("pipeline running", "mode", mode.String(), "output", outDir, "synthetic", *synthetic)
	if err := proc.Run(ctx, sourceOf(dev)); err != nil && err != context.Canceled {
		log.Error("frame source stopped", "err", err)
	}

	rec.Stop()
	server.Shutdown()
}

func sourceOf(d device) pipeline.Source { return d }

var (
	_ pipeline.PreviewSink = (*web.Server)(nil)
	_ pipeline.CaptureSink = (*capture.Saver)(nil)
	_ pipeline.Recorder    = (*recorder.Recorder)(nil)
)
