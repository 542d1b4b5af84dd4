package config

//go:generate go tool go-enum --marshal --names

// Raster format used when exporting slides.
// ENUM(png, jpeg)
type ExportFormat int

// Ext returns file extension (with dot) for the format.
func (f ExportFormat) Ext() string {
	switch f {
	case ExportFormatJpeg:
		return ".jpg"
	case ExportFormatPng:
		return ".png"
	default:
		// this should never happen
		panic("unsupported export format requested")
	}
}

// Storage back-end for saved documents.
// ENUM(sqlite, file)
type StorageDriver int
