// Package images holds raster helpers shared by slide painting and export.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"regexp"
	"strconv"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSVGSize is used when viewBox does not carry size.
const defaultSVGSize = 512

// maxRasterDim caps rasterized size, huge viewBox values would otherwise
// allocate gigabytes for RGBA buffer. Slides never exceed it.
var maxRasterDim = 4096

var strokeWidthRe = regexp.MustCompile(`(stroke-width\s*[=:]\s*["']?)(\d+(?:\.\d+)?)(["']?)`)

// SVGOptions controls SVG rasterization.
type SVGOptions struct {
	// StrokeScale multiplies stroke-width values, ignored when <= 0 or 1.
	StrokeScale float64
	// Background fills image before drawing, transparent when nil.
	Background color.Color
}

// ScaleStrokeWidth multiplies all stroke-width values in SVG data by factor.
func ScaleStrokeWidth(svgData []byte, factor float64) []byte {
	if factor <= 0 || factor == 1.0 {
		return svgData
	}
	return strokeWidthRe.ReplaceAllFunc(svgData, func(match []byte) []byte {
		sub := strokeWidthRe.FindSubmatch(match)
		if len(sub) < 4 {
			return match
		}
		value, err := strconv.ParseFloat(string(sub[2]), 64)
		if err != nil {
			return match
		}
		out := append([]byte{}, sub[1]...)
		out = strconv.AppendFloat(out, value*factor, 'f', -1, 64)
		return append(out, sub[3]...)
	})
}

// FitSize computes rasterization size for intrinsic w x h:
//   - zero target keeps intrinsic size
//   - single positive target dimension scales keeping aspect ratio
//   - both positive fit into the box keeping aspect ratio
func FitSize(intrW, intrH, targetW, targetH int) (int, int) {
	if intrW <= 0 {
		intrW = defaultSVGSize
	}
	if intrH <= 0 {
		intrH = defaultSVGSize
	}
	w, h := intrW, intrH
	switch {
	case targetW <= 0 && targetH <= 0:
	case targetH <= 0:
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	case targetW <= 0:
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	default:
		scale := math.Min(float64(targetW)/float64(intrW), float64(targetH)/float64(intrH))
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	}
	w, h = max(w, 1), max(h, 1)
	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}
	return w, h
}

// RasterizeSVG rasterizes SVG to RGBA image sized according to FitSize.
func RasterizeSVG(svgData []byte, targetW, targetH int, opts SVGOptions) (*image.RGBA, error) {
	svgData = ScaleStrokeWidth(svgData, opts.StrokeScale)

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("unable to parse svg: %w", err)
	}
	w, h := FitSize(int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H)), targetW, targetH)
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opts.Background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return dst, nil
}
