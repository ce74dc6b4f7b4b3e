package film

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/groundrt/ground/pkg/core"
)

// WriteFile serializes the buffer to the given path, choosing the encoding
// from the file extension: .pfm keeps the full floating-point values, .png
// writes a tone-mapped 8-bit preview
func (b *Buffer) WriteFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfm":
		return b.WritePFM(path)
	case ".png":
		return b.WritePNG(path)
	default:
		return fmt.Errorf("film: unsupported image format %q", filepath.Ext(path))
	}
}

// WritePNG writes a gamma-corrected 8-bit preview of the buffer
func (b *Buffer) WritePNG(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))

	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			rgb := b.pixelColor(x, y).Clamp(0, 1).GammaCorrect(2.2)
			img.Set(x, y, color.RGBA{
				R: uint8(rgb.X * 255.0),
				G: uint8(rgb.Y * 255.0),
				B: uint8(rgb.Z * 255.0),
				A: 255,
			})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("film: creating %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("film: encoding %s: %w", path, err)
	}
	return nil
}

// WritePFM writes the buffer as a portable float map, preserving the full
// dynamic range. Single-channel buffers use the greyscale "Pf" variant,
// everything else writes color "PF" from the first three channels
func (b *Buffer) WritePFM(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("film: creating %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	grey := b.channels < 3
	header := "PF"
	if grey {
		header = "Pf"
	}
	// Negative scale marks little-endian sample order
	if _, err := fmt.Fprintf(w, "%s\n%d %d\n-1.0\n", header, b.width, b.height); err != nil {
		return fmt.Errorf("film: writing %s: %w", path, err)
	}

	// PFM stores rows bottom to top
	for y := b.height - 1; y >= 0; y-- {
		for x := 0; x < b.width; x++ {
			if grey {
				if err := writeFloat32(w, b.At(x, y, 0)); err != nil {
					return fmt.Errorf("film: writing %s: %w", path, err)
				}
				continue
			}
			rgb := b.pixelColor(x, y)
			for _, v := range [3]float64{rgb.X, rgb.Y, rgb.Z} {
				if err := writeFloat32(w, v); err != nil {
					return fmt.Errorf("film: writing %s: %w", path, err)
				}
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("film: writing %s: %w", path, err)
	}
	return nil
}

// pixelColor reads one pixel as RGB, replicating single channels to grey
func (b *Buffer) pixelColor(x, y int) core.Vec3 {
	if b.channels < 3 {
		v := b.At(x, y, 0)
		return core.NewVec3(v, v, v)
	}
	return core.NewVec3(b.At(x, y, 0), b.At(x, y, 1), b.At(x, y, 2))
}

func writeFloat32(w *bufio.Writer, v float64) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
	_, err := w.Write(buf[:])
	return err
}
