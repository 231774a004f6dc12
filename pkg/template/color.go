package template

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"github.com/matzehuels/imprint/pkg/errors"
)

// ParseColor parses "#RGB", "#RRGGBB", "#RRGGBBAA", "rgb(r, g, b)" or an
// SVG color name such as "navy".
func ParseColor(s string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "#") && len(v) == 9:
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return nil, invalidColor(s)
		}
		c, err := colorful.Hex(v[:7])
		if err != nil {
			return nil, invalidColor(s)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: uint8(a)}, nil
	case strings.HasPrefix(v, "#"):
		if len(v) != 4 && len(v) != 7 {
			return nil, invalidColor(s)
		}
		c, err := colorful.Hex(v)
		if err != nil {
			return nil, invalidColor(s)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		var r, g, b int
		body := strings.ReplaceAll(v[4:len(v)-1], " ", "")
		if _, err := fmt.Sscanf(body, "%d,%d,%d", &r, &g, &b); err != nil {
			return nil, invalidColor(s)
		}
		for _, ch := range []int{r, g, b} {
			if ch < 0 || ch > 255 {
				return nil, invalidColor(s)
			}
		}
		return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}, nil
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}
	return nil, invalidColor(s)
}

func invalidColor(s string) error {
	return errors.New(errors.ErrCodeInvalidRequest, "invalid color %q", s)
}
