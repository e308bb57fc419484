package normalize

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doc-classifier/constants"
)

// Classification is the resolved media type of an input document.
type Classification struct {
	MediaType string
	Format    constants.Format
}

// IsPDF reports whether the document needs rasterizing.
func (c Classification) IsPDF() bool {
	return c.Format == constants.FormatPDF
}

// Resolve maps a filename (and, when the name has no extension, a declared
// content type) to a supported media type. Extension matching ignores case.
func Resolve(filename, contentType string) (Classification, error) {
	ext := filepath.Ext(strings.TrimSpace(filename))
	if ext != "" && ext != "." {
		mt, ok := constants.MediaTypeForExt(ext)
		if !ok {
			return Classification{}, &UnsupportedMediaTypeError{Name: strings.ToLower(ext)}
		}
		return classify(mt), nil
	}

	if strings.TrimSpace(contentType) == "" {
		return Classification{}, &UnsupportedMediaTypeError{Name: filename}
	}
	base := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		base = parsed
	}
	mt, ok := constants.CanonicalMediaType(base)
	if !ok {
		return Classification{}, &UnsupportedMediaTypeError{Name: strings.ToLower(strings.TrimSpace(base))}
	}
	return classify(mt), nil
}

func classify(mediaType string) Classification {
	return Classification{
		MediaType: mediaType,
		Format:    constants.MapMediaTypeToFormat(mediaType),
	}
}
