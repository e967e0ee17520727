package validation

import (
	"testing"

	apperrors "go-font-inspector/internal/errors"
)

func TestNewURLValidator(t *testing.T) {
	validator := NewURLValidator()
	if validator == nil {
		t.Fatal("Expected non-nil URL validator")
	}

	expectedSchemes := []string{"http", "https"}
	if len(validator.allowedSchemes) != len(expectedSchemes) {
		t.Errorf("Expected %d schemes, got %d", len(expectedSchemes), len(validator.allowedSchemes))
	}
	if len(validator.allowedHosts) != 0 {
		t.Errorf("Expected no host restriction, got %v", validator.allowedHosts)
	}
}

func TestValidateImageURL_ValidURLs(t *testing.T) {
	validator := NewURLValidator()

	validURLs := []string{
		"http://example.com/image.jpg",
		"https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		"http://192.168.1.1/image.jpg",
	}

	for _, u := range validURLs {
		if err := validator.ValidateImageURL(u); err != nil {
			t.Errorf("Expected valid URL %s to pass validation, got error: %v", u, err)
		}
	}
}

func TestValidateImageURL_Invalid(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"ftp scheme", "ftp://example.com/image.jpg"},
		{"file scheme", "file:///etc/passwd"},
		{"relative", "/images/a.png"},
		{"bad escape", "http://exa mple.com/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateImageURL(tt.url)
			if err == nil {
				t.Fatalf("Expected %q to be rejected", tt.url)
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestBlobURLValidator(t *testing.T) {
	validator := NewBlobURLValidator()

	tests := []struct {
		url   string
		valid bool
	}{
		{"https://acct.blob.core.windows.net/frames/shot.png", true},
		{"https://ACCT.blob.core.windows.net/frames/shot.png", true},
		{"http://acct.blob.core.windows.net/frames/shot.png", false},
		{"https://blob.core.windows.net/frames/shot.png", false},
		{"https://evil.example.com/acct.blob.core.windows.net", false},
	}

	for _, tt := range tests {
		err := validator.ValidateImageURL(tt.url)
		if tt.valid && err != nil {
			t.Errorf("Expected %s to pass, got %v", tt.url, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("Expected %s to be rejected", tt.url)
		}
	}
}

func TestURLValidatorWithExactHosts(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"img.youtube.com"})

	if err := validator.ValidateImageURL("https://img.youtube.com/vi/x/maxresdefault.jpg"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateImageURL("https://sub.img.youtube.com/vi/x/maxresdefault.jpg"); err == nil {
		t.Error("Expected exact host entries not to match subdomains")
	}
}
