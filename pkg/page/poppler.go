package page

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/imprint/pkg/errors"
)

// Poppler rasterizes PDF pages with the poppler-utils command line tools
// (pdfinfo and pdftoppm). Output is read from stdout; no temp files are used.
type Poppler struct {
	// Bin overrides the directory holding the poppler binaries.
	Bin string
}

// Available reports whether the poppler tools are installed.
func (p Poppler) Available() bool {
	_, err1 := exec.LookPath(p.tool("pdfinfo"))
	_, err2 := exec.LookPath(p.tool("pdftoppm"))
	return err1 == nil && err2 == nil
}

// PageCount implements Rasterizer.
func (p Poppler) PageCount(ctx context.Context, path string) (int, error) {
	if err := checkDocument(path); err != nil {
		return 0, err
	}
	out, _, err := p.run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, err
	}
	n, err := parsePageCount(out)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeBasePageMissing, err, "base document %s", path)
	}
	return n, nil
}

// Rasterize implements Rasterizer. The page range is checked by pdftoppm
// itself; pdfinfo is not consulted.
func (p Poppler) Rasterize(ctx context.Context, path string, index int, dpi float64) (image.Image, error) {
	if err := checkDocument(path); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, errors.New(errors.ErrCodePageOutOfRange, "page %d out of range for %s", index, path)
	}

	page := strconv.Itoa(index + 1)
	out, stderr, err := p.run(ctx, "pdftoppm",
		"-r", strconv.FormatFloat(dpi, 'f', -1, 64),
		"-f", page, "-l", page,
		"-png", "-singlefile", path)
	if err != nil {
		if pageRangeRejected(stderr) {
			return nil, errors.Wrap(errors.ErrCodePageOutOfRange, err, "page %d out of range for %s", index, path)
		}
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode rasterized page %d of %s", index, path)
	}
	return img, nil
}

func (p Poppler) tool(name string) string {
	if p.Bin == "" {
		return name
	}
	return filepath.Join(p.Bin, name)
}

// run executes a poppler tool and returns its stdout and stderr.
func (p Poppler) run(ctx context.Context, name string, args ...string) ([]byte, string, error) {
	bin := p.tool(name)
	if _, err := exec.LookPath(bin); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeConfiguration, err,
			"%s not found; PDF base documents require poppler:\n  macOS:  brew install poppler\n  Linux:  apt install poppler-utils", name)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		stderr := strings.TrimSpace(errBuf.String())
		return nil, stderr, errors.Wrap(errors.ErrCodeBasePageMissing, err, "%s: %s", name, stderr)
	}
	return out.Bytes(), errBuf.String(), nil
}

// pageRangeRejected reports whether pdftoppm refused the requested page
// because the document is shorter.
func pageRangeRejected(stderr string) bool {
	return strings.Contains(stderr, "Wrong page range")
}

// parsePageCount extracts the "Pages:" field from pdfinfo output.
func parsePageCount(info []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(info))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		return strconv.Atoi(strings.TrimSpace(val))
	}
	return 0, fmt.Errorf("no page count in pdfinfo output")
}
