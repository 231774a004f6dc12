package errors

import (
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid image", "Robot-girl.jpg", false},
		{"valid font", "sao.ttf", false},
		{"valid spaces", "cartao frente.png", false},
		{"valid unicode", "convite-noivos-ção.pdf", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"slash", "fonts/sao.ttf", true},
		{"backslash", "fonts\\sao.ttf", true},
		{"parent", "..", true},
		{"dot", ".", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("template", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidRequest) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidRequest)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid file", "order-42.pdf", false},
		{"valid nested", "2025/10/order-42.pdf", false},
		{"valid dots in name", "order..42.pdf", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret.pdf", true},
		{"nested traversal", "a/../../b.pdf", true},
		{"backslash", "a\\b.pdf", true},
		{"control", "a\tb.pdf", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
