package normalize

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMediaType is matched by every *UnsupportedMediaTypeError.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrRasterization is matched by every *RasterizationError.
	ErrRasterization = errors.New("rasterization failed")
)

// UnsupportedMediaTypeError names the extension or content type that was rejected.
type UnsupportedMediaTypeError struct {
	Name string
}

func (e *UnsupportedMediaTypeError) Error() string {
	name := e.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("unsupported media type %q: supported types are PDF, JPEG, PNG, WEBP, GIF", name)
}

func (e *UnsupportedMediaTypeError) Is(target error) bool {
	return target == ErrUnsupportedMediaType
}

// RasterizationError reports a PDF that could not be turned into an image.
// Page is the 1-based page that failed, or 0 when the failure is document-wide.
type RasterizationError struct {
	Reason string
	Page   int
	Cause  error
}

func (e *RasterizationError) Error() string {
	msg := "rasterization failed: " + e.Reason
	if e.Page > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.Page)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RasterizationError) Unwrap() error {
	return e.Cause
}

func (e *RasterizationError) Is(target error) bool {
	return target == ErrRasterization
}
