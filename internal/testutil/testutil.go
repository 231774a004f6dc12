// Package testutil builds on-disk fixtures for render tests: a pictures
// directory with blank base images, a font directory holding Go Regular as
// the fallback font, and a matching template registry.
package testutil

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/imprint/pkg/fonts"
	"github.com/matzehuels/imprint/pkg/pipeline"
	"github.com/matzehuels/imprint/pkg/template"
)

// Workspace is a temporary render setup.
type Workspace struct {
	Root     string
	Pictures string
	Fonts    string
	Output   string
	Registry *template.Registry
	Store    *fonts.Store
}

// Card is the template every workspace registers.
const Card = "card.png"

// NewWorkspace creates the fixture under t.TempDir().
func NewWorkspace(t testing.TB) *Workspace {
	t.Helper()
	root := t.TempDir()
	ws := &Workspace{
		Root:     root,
		Pictures: filepath.Join(root, "pictures"),
		Fonts:    filepath.Join(root, "fonts"),
		Output:   filepath.Join(root, "output"),
	}
	for _, d := range []string{ws.Pictures, ws.Fonts} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(ws.Fonts, fonts.DefaultFallback), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	WriteImage(t, filepath.Join(ws.Pictures, Card), 240, 120)

	ws.Registry = template.New(map[string]template.Spec{
		Card: {
			Position: template.Point{X: 12, Y: 12},
			MaxWidth: 216,
			FontSize: 20,
			Color:    template.DefaultColor,
			Align:    template.AlignLeft,
		},
	})
	store, err := fonts.NewStore(ws.Fonts)
	if err != nil {
		t.Fatal(err)
	}
	ws.Store = store
	return ws
}

// Assembler returns an assembler writing into the workspace output dir.
func (ws *Workspace) Assembler() *pipeline.Assembler {
	return pipeline.NewAssembler(ws.Registry, ws.Store, pipeline.Options{
		Pictures: ws.Pictures,
		Output:   ws.Output,
	})
}

// WriteImage writes a white PNG of the given size.
func WriteImage(t testing.TB, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.New(w, h, color.White)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}
