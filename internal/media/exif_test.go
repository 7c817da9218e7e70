package media

import "testing"

func TestExtractGPSHandlesNonImageData(t *testing.T) {
	if coords := ExtractGPS([]byte("not an image at all")); coords != nil {
		t.Fatalf("coords = %+v, want nil for junk input", coords)
	}
}

func TestExtractGPSHandlesImageWithoutExif(t *testing.T) {
	// Minimal JPEG: SOI + EOI markers, no metadata segments.
	minimal := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	if coords := ExtractGPS(minimal); coords != nil {
		t.Fatalf("coords = %+v, want nil when EXIF is absent", coords)
	}
}

func TestExtractGPSHandlesEmptyInput(t *testing.T) {
	if coords := ExtractGPS(nil); coords != nil {
		t.Fatalf("coords = %+v, want nil for empty input", coords)
	}
}
