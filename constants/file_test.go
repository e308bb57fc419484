package constants

import "testing"

func TestMediaTypeForExt(t *testing.T) {
	tests := []struct {
		ext  string
		want string
		ok   bool
	}{
		{".jpg", MediaTypeJPEG, true},
		{"JPEG", MediaTypeJPEG, true},
		{".Png", MediaTypePNG, true},
		{"webp", MediaTypeWEBP, true},
		{".GIF", MediaTypeGIF, true},
		{".PDF", MediaTypePDF, true},
		{".tiff", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, ok := MediaTypeForExt(tt.ext)
			if got != tt.want || ok != tt.ok {
				t.Errorf("MediaTypeForExt(%q) = (%q, %v), want (%q, %v)", tt.ext, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCanonicalMediaType(t *testing.T) {
	if got, ok := CanonicalMediaType(" Image/JPG "); !ok || got != MediaTypeJPEG {
		t.Errorf("alias not folded: got (%q, %v)", got, ok)
	}
	if got, ok := CanonicalMediaType("application/pdf"); !ok || got != MediaTypePDF {
		t.Errorf("pdf: got (%q, %v)", got, ok)
	}
	if _, ok := CanonicalMediaType("text/plain"); ok {
		t.Error("text/plain should not be accepted")
	}
}

func TestMapMediaTypeToFormat(t *testing.T) {
	if MapMediaTypeToFormat(MediaTypePDF) != FormatPDF {
		t.Error("pdf should map to FormatPDF")
	}
	for _, mt := range []string{MediaTypeJPEG, MediaTypePNG, MediaTypeWEBP, MediaTypeGIF} {
		if MapMediaTypeToFormat(mt) != FormatImage {
			t.Errorf("%s should map to FormatImage", mt)
		}
	}
}
