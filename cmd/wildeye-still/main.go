// Wildeye-still - one-shot vision filter for still images
//
// Decodes an image file, runs the requested vision filter chain on it,
// and writes the result.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/kindredlens/go-wildeye/internal/config"
	"github.com/kindredlens/go-wildeye/internal/log"
	"github.com/kindredlens/go-wildeye/pkg/frame"
	"github.com/kindredlens/go-wildeye/pkg/vision"
)

func main() {
	in := flag.String("in", "", "input image (jpeg or png)")
	out := flag.String("out", "", "output image path; format follows the extension")
	modeName := flag.String("mode", config.Mode(), "vision mode: dichromat, uvpattern, thermal, acuity")
	flag.Parse()

	log.Init(config.LogLevel())

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: wildeye-still -in photo.jpg -out seen.jpg -mode thermal")
		os.Exit(2)
	}

	mode, err := vision.Parse(*modeName)
	if err != nil {
		fatal(err)
	}

	img, err := decode(*in)
	if err != nil {
		fatal(fmt.Errorf("decode %s: %w", *in, err))
	}

	filtered := vision.Transform(mode, frame.FromImage(img))

	if err := encode(*out, filtered); err != nil {
		fatal(fmt.Errorf("encode %s: %w", *out, err))
	}
	log.Info("still converted", "in", *in, "out", *out, "mode", mode.String())
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func encode(path string, fr *frame.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode(f, fr.ToRGBA())
	default:
		return jpeg.Encode(f, fr.ToRGBA(), &jpeg.Options{Quality: 95})
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
