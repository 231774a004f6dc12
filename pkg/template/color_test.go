package template

import (
	"image/color"
	"testing"

	"github.com/matzehuels/imprint/pkg/errors"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#000000", color.NRGBA{0, 0, 0, 255}, false},
		{"#ff8000", color.NRGBA{255, 128, 0, 255}, false},
		{"#FFF", color.NRGBA{255, 255, 255, 255}, false},
		{"#ff000080", color.NRGBA{255, 0, 0, 128}, false},
		{"rgb(1, 2, 3)", color.NRGBA{1, 2, 3, 255}, false},
		{"navy", color.NRGBA{0, 0, 128, 255}, false},
		{"rgb(300,0,0)", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"notacolor", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidRequest) {
					t.Errorf("ParseColor(%q) err = %v, want %s", tt.in, err, errors.ErrCodeInvalidRequest)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q): %v", tt.in, err)
			}
			got := color.NRGBAModel.Convert(c).(color.NRGBA)
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
