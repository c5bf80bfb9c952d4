package models

import "testing"

func TestAnalyzeRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/cat.jpg", false},
		{"http with port", "http://localhost:8080/img.png?size=large", false},
		{"empty", "", true},
		{"relative", "/cat.jpg", true},
		{"no scheme", "example.com/cat.jpg", true},
		{"ftp", "ftp://example.com/cat.jpg", true},
		{"no host", "http:///cat.jpg", true},
		{"garbage", "::not a url::", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeRequest{ImageURL: tt.url}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
