// Package template holds the template registry: the read-only mapping from a
// template identifier to the layout rules used to draw text onto its page.
//
// A registry is loaded once per process from the file written by the
// template editor. The wire format is a JSON (or TOML) object keyed by
// template identifier:
//
//	{
//	  "Robot-girl.jpg": {
//	    "pos_x": 120, "pos_y": 840,
//	    "max_width_pixels": 900, "max_lines": 2,
//	    "font_name": "sao.ttf", "font_size": 64,
//	    "color": "#FFFFFF", "align": "center"
//	  }
//	}
//
// Loading never aborts the process: [LoadOrEmpty] degrades to an empty
// registry, and individual invalid entries are skipped.
package template
