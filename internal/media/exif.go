package media

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// Coordinates is a GPS position extracted from photo metadata.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// ExtractGPS reads EXIF GPS metadata from an image. Returns nil when the
// image carries no usable position; decoding problems are not errors, since
// most phone uploads have their metadata stripped.
func ExtractGPS(data []byte) *Coordinates {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	lat, lng, err := meta.LatLong()
	if err != nil {
		return nil
	}
	if lat == 0 && lng == 0 {
		return nil
	}

	return &Coordinates{Latitude: lat, Longitude: lng}
}
