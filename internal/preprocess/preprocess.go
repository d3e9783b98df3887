// Package preprocess converts decoded photos into the flat float32 tensor
// the breed model consumes. The numeric details here must match the
// training pipeline bit-for-bit in distribution: the model was trained on
// direct square resizes with ImageNet per-channel normalization, so any
// deviation (letterboxing, different constants) silently degrades
// predictions without erroring.
package preprocess

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/meowai/catscan/internal/mempool"
)

// Channels is the number of color channels in the model input.
const Channels = 3

// ImageNet per-channel normalization constants (R, G, B). Fixed by the
// training pipeline; never make these configurable.
const (
	meanR = 0.485
	meanG = 0.456
	meanB = 0.406
	stdR  = 0.229
	stdG  = 0.224
	stdB  = 0.225
)

// TensorForImage resizes img to side x side and normalizes it into a flat
// float32 buffer in row-major, channel-interleaved (NHWC) order:
// index = (y*side + x)*3 + channel. Each channel value is computed as
// (v/255 - mean) / std. Alpha is ignored; a fully transparent pixel still
// contributes its stored RGB values.
func TensorForImage(img image.Image, side int) ([]float32, error) {
	buf := make([]float32, Channels*side*side)
	if err := tensorInto(img, side, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// TensorForImagePooled is TensorForImage backed by the shared buffer pool.
// The caller must invoke the returned release func once the buffer is no
// longer referenced, including on inference failure.
func TensorForImagePooled(img image.Image, side int) ([]float32, func(), error) {
	buf := mempool.GetFloat32(Channels * side * side)
	if err := tensorInto(img, side, buf); err != nil {
		mempool.PutFloat32(buf)
		return nil, nil, err
	}
	return buf, func() { mempool.PutFloat32(buf) }, nil
}

func tensorInto(img image.Image, side int, buf []float32) error {
	if img == nil {
		return errors.New("input image is nil")
	}
	if side <= 0 {
		return errors.New("invalid target side")
	}

	b := img.Bounds()
	if b.Dx() != side || b.Dy() != side {
		// Direct square resize, no aspect-ratio preservation.
		img = imaging.Resize(img, side, side, imaging.Lanczos)
	}

	// Clone to NRGBA so every source decoder hands over the same 4-byte
	// RGBA layout regardless of its native pixel format.
	nrgba := imaging.Clone(img)

	pix := nrgba.Pix
	stride := nrgba.Stride
	for y := range side {
		row := pix[y*stride : y*stride+side*4]
		for x := range side {
			r := row[x*4]
			g := row[x*4+1]
			bb := row[x*4+2]
			i := (y*side + x) * Channels
			buf[i] = (float32(r)/255.0 - meanR) / stdR
			buf[i+1] = (float32(g)/255.0 - meanG) / stdG
			buf[i+2] = (float32(bb)/255.0 - meanB) / stdB
		}
	}
	return nil
}
