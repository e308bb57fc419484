package normalize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used for stitched PDF output.
const DefaultJPEGQuality = 90

// EncodedPayload is the transport form handed to the classifier.
type EncodedPayload struct {
	Data      string // base64, standard alphabet with padding
	MediaType string
	Raw       []byte // the bytes Data encodes
	Pages     int    // source pages; 1 for raster images
	Width     int    // 0 when unknown
	Height    int
}

// DataURL renders the payload as a data: URL.
func (p EncodedPayload) DataURL() string {
	return "data:" + p.MediaType + ";base64," + p.Data
}

// Encode pairs the base64 form of data with its media type. It is pure:
// identical inputs give identical payloads.
func Encode(data []byte, mediaType string) EncodedPayload {
	return EncodedPayload{
		Data:      base64.StdEncoding.EncodeToString(data),
		MediaType: mediaType,
		Raw:       data,
		Pages:     1,
	}
}

// EncodeJPEG serializes img as a JPEG at the given quality (1..100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
