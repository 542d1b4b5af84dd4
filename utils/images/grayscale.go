package images

import (
	"image"
	"image/color"
)

// IsGrayscale reports whether every pixel of img has R==G==B. Scan stops at
// first colored pixel, so typical slides return quickly.
func IsGrayscale(img image.Image) bool {
	switch img := img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	case *image.RGBA:
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
			for i := 0; i+3 < len(row); i += 4 {
				if row[i] != row[i+1] || row[i+1] != row[i+2] {
					return false
				}
			}
		}
		return true
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.R != c.G || c.G != c.B {
				return false
			}
		}
	}
	return true
}
