package template

import (
	"fmt"
	"image/color"
)

// Align is the horizontal alignment of each line inside the text block.
type Align string

// Alignments understood by the layout engine.
const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Defaults for optional fields.
const (
	DefaultFontSize = 50
	DefaultColor    = "#000000"
	DefaultAlign    = AlignLeft
)

// Point is a position in source-page pixels.
type Point struct {
	X, Y float64
}

// Spec describes where and how text is drawn on one template page.
// Positions are anchored to the resolution the base page is rasterized at.
type Spec struct {
	ID       string
	Image    string // base image filename
	Position Point
	MaxWidth int  // 0 means unbounded
	MaxLines *int // nil means no cap
	FontName string
	FontSize int
	Color    string
	Align    Align
}

// Unbounded reports whether the spec places no limit on line width.
func (s Spec) Unbounded() bool { return s.MaxWidth <= 0 }

// LineCap returns the maximum number of lines and whether a cap is set.
func (s Spec) LineCap() (int, bool) {
	if s.MaxLines == nil {
		return 0, false
	}
	return *s.MaxLines, true
}

// TextColor returns the parsed text color; an unparsable color yields black.
func (s Spec) TextColor() color.Color {
	c, err := ParseColor(s.Color)
	if err != nil {
		return color.Black
	}
	return c
}

// BaseImage returns the filename of the page the template draws on.
func (s Spec) BaseImage() string {
	if s.Image != "" {
		return s.Image
	}
	return s.ID
}

// record is the on-disk representation of a Spec.
type record struct {
	PosX     *float64 `json:"pos_x" toml:"pos_x"`
	PosY     *float64 `json:"pos_y" toml:"pos_y"`
	MaxWidth *int     `json:"max_width_pixels,omitempty" toml:"max_width_pixels"`
	MaxLines *int     `json:"max_lines,omitempty" toml:"max_lines"`
	FontName *string  `json:"font_name,omitempty" toml:"font_name"`
	FontSize *int     `json:"font_size,omitempty" toml:"font_size"`
	Color    string   `json:"color,omitempty" toml:"color"`
	Align    string   `json:"align,omitempty" toml:"align"`
	Image    string   `json:"image,omitempty" toml:"image"`
}

// spec validates a record and applies defaults.
func (r record) spec(id string) (Spec, error) {
	if r.PosX == nil || r.PosY == nil {
		return Spec{}, fmt.Errorf("missing position (pos_x/pos_y)")
	}
	s := Spec{
		ID:       id,
		Image:    r.Image,
		Position: Point{X: *r.PosX, Y: *r.PosY},
		FontSize: DefaultFontSize,
		Color:    DefaultColor,
		Align:    DefaultAlign,
		MaxLines: r.MaxLines,
	}
	if r.MaxWidth != nil {
		if *r.MaxWidth < 0 {
			return Spec{}, fmt.Errorf("max_width_pixels must be >= 0, got %d", *r.MaxWidth)
		}
		s.MaxWidth = *r.MaxWidth
	}
	if r.MaxLines != nil && *r.MaxLines < 0 {
		return Spec{}, fmt.Errorf("max_lines must be >= 0, got %d", *r.MaxLines)
	}
	if r.FontName != nil {
		s.FontName = *r.FontName
	}
	if r.FontSize != nil {
		if *r.FontSize <= 0 {
			return Spec{}, fmt.Errorf("font_size must be > 0, got %d", *r.FontSize)
		}
		s.FontSize = *r.FontSize
	}
	if r.Color != "" {
		if _, err := ParseColor(r.Color); err != nil {
			return Spec{}, fmt.Errorf("invalid color %q", r.Color)
		}
		s.Color = r.Color
	}
	if r.Align != "" {
		switch a := Align(r.Align); a {
		case AlignLeft, AlignCenter, AlignRight:
			s.Align = a
		default:
			return Spec{}, fmt.Errorf("invalid align %q (must be left, center or right)", r.Align)
		}
	}
	return s, nil
}
