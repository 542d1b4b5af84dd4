package paint

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"crsl/config"
	"crsl/utils/images"
)

// Encode serializes slide image in requested format.
func Encode(img image.Image, format config.ExportFormat, quality int) ([]byte, error) {
	switch format {
	case config.ExportFormatPng:
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("unable to encode png: %w", err)
		}
		return buf.Bytes(), nil
	case config.ExportFormatJpeg:
		// slides are social media images, 72 ppi is what consumers expect
		data, err := images.EncodeJPEG(img, quality, images.DensityPixelsPerInch, 72, 72)
		if err != nil {
			return nil, fmt.Errorf("unable to encode jpeg: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported export format %s", format)
	}
}
