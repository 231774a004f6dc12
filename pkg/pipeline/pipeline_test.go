package pipeline

import (
	"testing"

	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
)

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.FallbackFont != "sao.ttf" {
		t.Errorf("FallbackFont = %q, want sao.ttf", o.FallbackFont)
	}
	if o.RasterDPI != 300 || o.ImageDPI != 100 {
		t.Errorf("DPI = %v/%v, want 300/100", o.RasterDPI, o.ImageDPI)
	}
	if o.DefaultFormat != document.FormatPNG {
		t.Errorf("DefaultFormat = %q, want png", o.DefaultFormat)
	}
	if o.Cache == nil || o.Keyer == nil || o.Logger == nil || o.Rasterizer == nil {
		t.Error("runtime collaborators should be defaulted")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"ok", Options{Output: "out"}, false},
		{"no output", Options{}, true},
		{"bad format", Options{Output: "out", DefaultFormat: "gif"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.SetDefaults()
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Errorf("Validate() code = %s, want %s", errors.GetCode(err), errors.ErrCodeConfiguration)
			}
		})
	}
}
