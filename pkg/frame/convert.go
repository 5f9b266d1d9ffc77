package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
)

// FromImage converts a decoded image to a normalized frame.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			f.Pix[i] = float32(r) / 65535
			f.Pix[i+1] = float32(g) / 65535
			f.Pix[i+2] = float32(bl) / 65535
			f.Pix[i+3] = float32(a) / 65535
			i += 4
		}
	}
	return f
}

// FromBGR builds a frame from an 8-bit interleaved BGR buffer, the
// layout OpenCV hands back for color captures. The buffer must hold
// w*h*3 bytes.
func FromBGR(buf []byte, w, h int) *Frame {
	f := New(w, h)
	for p, i := 0, 0; p < w*h*3; p, i = p+3, i+4 {
		f.Pix[i] = float32(buf[p+2]) / 255
		f.Pix[i+1] = float32(buf[p+1]) / 255
		f.Pix[i+2] = float32(buf[p]) / 255
		f.Pix[i+3] = 1
	}
	return f
}

// ToRGBA renders the frame into a standard library image.
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			r, g, b, a := f.At(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(Clamp(r)*255 + 0.5),
				G: uint8(Clamp(g)*255 + 0.5),
				B: uint8(Clamp(b)*255 + 0.5),
				A: uint8(Clamp(a)*255 + 0.5),
			})
		}
	}
	return img
}

// ToBGRBytes renders the frame as an 8-bit interleaved BGR buffer for
// handing to the encoder.
func (f *Frame) ToBGRBytes() []byte {
	buf := make([]byte, f.W*f.H*3)
	for p, i := 0, 0; p < len(buf); p, i = p+3, i+4 {
		buf[p] = uint8(Clamp(f.Pix[i+2])*255 + 0.5)
		buf[p+1] = uint8(Clamp(f.Pix[i+1])*255 + 0.5)
		buf[p+2] = uint8(Clamp(f.Pix[i])*255 + 0.5)
	}
	return buf
}

// ToJPEG encodes the frame as a JPEG at the given quality (1-100).
func (f *Frame) ToJPEG(quality int) ([]byte, error) {
	var buf bytes.Buffer
	err := jpeg.Encode(&buf, f.ToRGBA(), &jpeg.Options{Quality: quality})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
