package inference

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/gift"
	_ "golang.org/x/image/webp"
)

// DefaultImageSize is the square input resolution of the model.
const DefaultImageSize = 224

// MaxPixels caps the declared dimensions of an image before it is decoded.
// Compressed formats can declare far more pixels than their byte size
// suggests.
const MaxPixels = 89_478_485

// Tensor is one image as height x width x RGB, each channel in [0,1].
type Tensor [][][]float32

// Preprocess decodes a PNG, JPEG or WEBP image, resizes it to size x size
// and normalizes the RGB channels to [0,1]. Alpha is dropped.
func Preprocess(data []byte, size int) (Tensor, error) {
	if size <= 0 {
		size = DefaultImageSize
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	g := gift.New(gift.Resize(size, size, gift.LinearResampling))
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	b := dst.Bounds()
	t := make(Tensor, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := make([][]float32, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			c := dst.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			row[x] = []float32{
				float32(c.R) / 255,
				float32(c.G) / 255,
				float32(c.B) / 255,
			}
		}
		t[y] = row
	}

	return t, nil
}
