package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/draw"
	"image/jpeg"
)

// DensityUnit is JFIF density unit.
type DensityUnit uint8

const (
	DensityNoUnits DensityUnit = iota
	DensityPixelsPerInch
	DensityPixelsPerCm
)

// EnsureJFIF inserts JFIF APP0 segment with requested density when it is
// missing. Go encoder does not write it and some image viewers assume 96 ppi.
func EnsureJFIF(data []byte, unit DensityUnit, xdensity, ydensity uint16) ([]byte, bool, error) {
	if len(data) < 4 {
		return nil, false, errors.New("jpeg too small")
	}
	if data[0] != 0xFF || data[1] != 0xD8 {
		return nil, false, errors.New("not a jpeg")
	}
	if data[2] == 0xFF && data[3] == 0xE0 {
		return data, false, nil
	}

	buf := new(bytes.Buffer)
	buf.Grow(len(data) + 18)
	buf.Write(data[:2])
	buf.Write([]byte{0xFF, 0xE0})
	_ = binary.Write(buf, binary.BigEndian, uint16(16))
	buf.Write([]byte{'J', 'F', 'I', 'F', 0x00, 0x01, 0x02})
	buf.WriteByte(byte(unit))
	_ = binary.Write(buf, binary.BigEndian, xdensity)
	_ = binary.Write(buf, binary.BigEndian, ydensity)
	buf.Write([]byte{0x00, 0x00}) // no thumbnail
	buf.Write(data[2:])
	return buf.Bytes(), true, nil
}

// EncodeJPEG encodes image with JFIF density. Grayscale images are encoded
// with single channel.
func EncodeJPEG(img image.Image, quality int, unit DensityUnit, xdensity, ydensity uint16) ([]byte, error) {
	if IsGrayscale(img) {
		if _, ok := img.(*image.Gray); !ok {
			gray := image.NewGray(img.Bounds())
			draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
			img = gray
		}
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	out, _, err := EnsureJFIF(buf.Bytes(), unit, xdensity, ydensity)
	if err != nil {
		return nil, err
	}
	return out, nil
}
