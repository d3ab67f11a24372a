// Package transform post-processes extracted JPEG frames: mirroring and a
// timestamp overlay.
package transform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrDecode indicates the frame is not a decodable JPEG.
var ErrDecode = errors.New("transform: cannot decode frame")

// FlipMode selects how a frame is mirrored.
type FlipMode int

const (
	FlipNone FlipMode = iota
	// FlipHorizontal mirrors left and right.
	FlipHorizontal
	// FlipVertical mirrors top and bottom.
	FlipVertical
	// FlipBoth is a rotation by 180 degrees.
	FlipBoth
)

// FlipModeFromFlags combines the two independent flip flags.
func FlipModeFromFlags(horizontal, vertical bool) FlipMode {
	switch {
	case horizontal && vertical:
		return FlipBoth
	case horizontal:
		return FlipHorizontal
	case vertical:
		return FlipVertical
	default:
		return FlipNone
	}
}

// String returns the mode name.
func (m FlipMode) String() string {
	switch m {
	case FlipNone:
		return "None"
	case FlipHorizontal:
		return "Horizontal"
	case FlipVertical:
		return "Vertical"
	case FlipBoth:
		return "Both"
	default:
		return fmt.Sprintf("FlipMode(%d)", int(m))
	}
}

// IsValid reports whether the mode is known.
func (m FlipMode) IsValid() bool {
	return m >= FlipNone && m <= FlipBoth
}

// Transformer rewrites a complete JPEG frame.
// An empty stamp means no overlay.
type Transformer interface {
	Transform(frame []byte, flip FlipMode, stamp string) ([]byte, error)
}

// DefaultQuality is the JPEG quality used when re-encoding.
const DefaultQuality = 90

// Overlay placement, measured from the bottom-left corner.
const (
	stampMarginX = 10
	stampMarginY = 20
)

var stampColor = color.RGBA{R: 0xff, A: 0xff}

// JPEG decodes, transforms and re-encodes frames.
type JPEG struct {
	// Quality of the re-encoded frame, 1-100. Default: DefaultQuality.
	Quality int
}

// Transform implements Transformer. The frame is returned untouched when
// there is nothing to do.
func (j JPEG) Transform(frame []byte, flip FlipMode, stamp string) ([]byte, error) {
	if flip == FlipNone && stamp == "" {
		return frame, nil
	}

	img, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}

	var out *image.NRGBA
	switch flip {
	case FlipHorizontal:
		out = imaging.FlipH(img)
	case FlipVertical:
		out = imaging.FlipV(img)
	case FlipBoth:
		out = imaging.Rotate180(img)
	default:
		out = imaging.Clone(img)
	}

	if stamp != "" {
		drawStamp(out, stamp)
	}

	quality := j.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("transform: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func drawStamp(dst *image.NRGBA, text string) {
	b := dst.Bounds()
	y := max(b.Max.Y-stampMarginY, b.Min.Y+basicfont.Face7x13.Ascent)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(stampColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(b.Min.X+stampMarginX, y),
	}
	d.DrawString(text)
}
