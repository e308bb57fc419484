package constants

import "strings"

// Format is the coarse kind of an accepted upload.
type Format string

const (
	FormatImage Format = "IMAGE"
	FormatPDF   Format = "PDF"
)

// Media types the classifier accepts.
const (
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypeWEBP = "image/webp"
	MediaTypeGIF  = "image/gif"
	MediaTypePDF  = "application/pdf"
)

// extMediaTypes maps a normalized extension to its media type.
var extMediaTypes = map[string]string{
	"jpg":  MediaTypeJPEG,
	"jpeg": MediaTypeJPEG,
	"jpe":  MediaTypeJPEG,
	"png":  MediaTypePNG,
	"webp": MediaTypeWEBP,
	"gif":  MediaTypeGIF,
	"pdf":  MediaTypePDF,
}

// contentTypeAliases folds non-canonical content types seen in the wild.
var contentTypeAliases = map[string]string{
	"image/jpg":         MediaTypeJPEG,
	"image/pjpeg":       MediaTypeJPEG,
	"image/x-png":       MediaTypePNG,
	"application/x-pdf": MediaTypePDF,
}

// SupportedMediaTypes lists every accepted media type in a stable order.
var SupportedMediaTypes = []string{MediaTypeJPEG, MediaTypePNG, MediaTypeWEBP, MediaTypeGIF, MediaTypePDF}

// AllowedExtensions holds the extensions picked up by directory batches.
var AllowedExtensions = func() map[string]struct{} {
	m := make(map[string]struct{}, len(extMediaTypes))
	for ext := range extMediaTypes {
		m[ext] = struct{}{}
	}
	return m
}()

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MediaTypeForExt returns the media type for an extension (with or without dot).
func MediaTypeForExt(ext string) (string, bool) {
	mt, ok := extMediaTypes[NormalizeExt(ext)]
	return mt, ok
}

// CanonicalMediaType returns the canonical form of a declared content type
// if it is one we accept.
func CanonicalMediaType(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if alias, ok := contentTypeAliases[ct]; ok {
		return alias, true
	}
	for _, mt := range SupportedMediaTypes {
		if ct == mt {
			return mt, true
		}
	}
	return "", false
}

// MapMediaTypeToFormat reports whether a supported media type is a PDF or a raster image.
func MapMediaTypeToFormat(mediaType string) Format {
	if mediaType == MediaTypePDF {
		return FormatPDF
	}
	return FormatImage
}

// ExtForMediaType returns the preferred extension (without dot) for a media type.
func ExtForMediaType(mediaType string) string {
	switch mediaType {
	case MediaTypeJPEG:
		return "jpg"
	case MediaTypePNG:
		return "png"
	case MediaTypeWEBP:
		return "webp"
	case MediaTypeGIF:
		return "gif"
	case MediaTypePDF:
		return "pdf"
	}
	return ""
}
