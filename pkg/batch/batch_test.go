package batch

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/fonts"
	"github.com/matzehuels/imprint/pkg/pipeline"
	"github.com/matzehuels/imprint/pkg/request"
	"github.com/matzehuels/imprint/pkg/template"
)

func str(s string) *string { return &s }

// scripted fails requests whose ID appears in fail with the given code.
type scripted struct {
	mu    sync.Mutex
	fail  map[string]errors.Code
	calls []string
	delay time.Duration
}

func (s *scripted) Assemble(_ context.Context, req request.Request) (*pipeline.Result, error) {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.calls = append(s.calls, req.ID)
	s.mu.Unlock()
	if code, ok := s.fail[req.ID]; ok {
		return nil, errors.New(code, "scripted failure for %s", req.ID)
	}
	return &pipeline.Result{ID: req.ID, Output: req.ID + ".png", Pages: 1}, nil
}

func requests(ids ...string) []request.Request {
	out := make([]request.Request, len(ids))
	for i, id := range ids {
		out[i] = request.Request{ID: id, Template: "t", Text: str("x")}
	}
	return out
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	pictures, fontDir, output := filepath.Join(dir, "pictures"), filepath.Join(dir, "fonts"), filepath.Join(dir, "out")
	os.MkdirAll(pictures, 0o755)
	os.MkdirAll(fontDir, 0o755)
	os.WriteFile(filepath.Join(fontDir, "sao.ttf"), goregular.TTF, 0o644)
	var buf bytes.Buffer
	png.Encode(&buf, imaging.New(200, 100, color.White))
	os.WriteFile(filepath.Join(pictures, "card.png"), buf.Bytes(), 0o644)

	reg := template.New(map[string]template.Spec{
		"card.png": {Position: template.Point{X: 10, Y: 10}, MaxWidth: 180, FontSize: 20, Color: "#000000", Align: template.AlignLeft},
	})
	store, err := fonts.NewStore(fontDir)
	if err != nil {
		t.Fatal(err)
	}
	asm := pipeline.NewAssembler(reg, store, pipeline.Options{Pictures: pictures, Output: output})

	reqs := []request.Request{
		{ID: "1", Template: "card.png", Text: str("one")},
		{ID: "2", Template: "card.png", Text: str("two")},
		{ID: "3", Template: "missing.png", Text: str("three")},
		{ID: "4", Template: "card.png", Text: str("four")},
		{ID: "5", Template: "card.png", Text: str("five")},
	}
	sum := NewRunner(asm, 1, nil).Run(context.Background(), reqs)

	if sum.Total != 5 || sum.Succeeded != 4 || sum.Failed != 1 || sum.Aborted {
		t.Fatalf("summary = %d total, %d ok, %d failed, aborted=%v; want 5/4/1/false",
			sum.Total, sum.Succeeded, sum.Failed, sum.Aborted)
	}
	if it := sum.Items[2]; it.Status != StatusFailed || it.Code != errors.ErrCodeTemplateNotFound {
		t.Errorf("Items[2] = %+v, want TEMPLATE_NOT_FOUND", it)
	}
	for _, id := range []string{"1", "2", "4", "5"} {
		if _, err := os.Stat(filepath.Join(output, id+"_card.png")); err != nil {
			t.Errorf("output for request %s missing: %v", id, err)
		}
	}
	entries, _ := os.ReadDir(output)
	if len(entries) != 4 {
		t.Errorf("output has %d files, want 4", len(entries))
	}
	if sum.ID == "" {
		t.Error("summary has no batch id")
	}
}

func TestRunTransportAborts(t *testing.T) {
	a := &scripted{fail: map[string]errors.Code{
		"2": errors.ErrCodeTemplateNotFound,
		"3": errors.ErrCodeTransport,
	}}
	sum := NewRunner(a, 1, nil).Run(context.Background(), requests("1", "2", "3", "4", "5"))

	if !sum.Aborted || sum.AbortErr == "" {
		t.Fatalf("Aborted = %v (%q), want true", sum.Aborted, sum.AbortErr)
	}
	want := []Status{StatusOK, StatusFailed, StatusAborted, StatusNotRun, StatusNotRun}
	for i, st := range want {
		if sum.Items[i].Status != st {
			t.Errorf("Items[%d].Status = %s, want %s", i, sum.Items[i].Status, st)
		}
	}
	if sum.Succeeded != 1 || sum.Failed != 1 || sum.AbortedItems != 1 || sum.NotRun != 2 {
		t.Errorf("counts = %d/%d/%d/%d, want 1/1/1/2", sum.Succeeded, sum.Failed, sum.AbortedItems, sum.NotRun)
	}
	if got := sum.Succeeded + sum.Failed + sum.AbortedItems + sum.NotRun; got != sum.Total {
		t.Errorf("counted items = %d, want Total %d", got, sum.Total)
	}
	if len(a.calls) != 3 {
		t.Errorf("assembler called %d times, want 3", len(a.calls))
	}
}

func TestRunTimeoutIsPerItem(t *testing.T) {
	a := &scripted{fail: map[string]errors.Code{"2": errors.ErrCodeTimeout}}
	sum := NewRunner(a, 1, nil).Run(context.Background(), requests("1", "2", "3"))
	if sum.Aborted || sum.Succeeded != 2 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 2 ok / 1 failed, not aborted", sum)
	}
}

func TestRunConcurrentKeepsOrder(t *testing.T) {
	a := &scripted{fail: map[string]errors.Code{"c": errors.ErrCodeFontUnavailable}, delay: time.Millisecond}
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	sum := NewRunner(a, 4, nil).Run(context.Background(), requests(ids...))

	if sum.Succeeded != 7 || sum.Failed != 1 {
		t.Fatalf("counts = %d/%d, want 7/1", sum.Succeeded, sum.Failed)
	}
	for i, id := range ids {
		if sum.Items[i].Label != id || sum.Items[i].Index != i {
			t.Errorf("Items[%d] = %s/%d, want %s/%d", i, sum.Items[i].Label, sum.Items[i].Index, id, i)
		}
	}
}

func TestRunCancelledStopsSubmitting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	a := assemblerFunc(func(context.Context, request.Request) (*pipeline.Result, error) {
		if n.Add(1) == 2 {
			cancel()
		}
		return &pipeline.Result{}, nil
	})
	sum := NewRunner(a, 1, nil).Run(ctx, requests("1", "2", "3", "4"))
	if sum.Succeeded != 2 || sum.NotRun != 2 || sum.AbortedItems != 0 {
		t.Errorf("counts = %d ok / %d not run, want 2/2", sum.Succeeded, sum.NotRun)
	}
}

type assemblerFunc func(context.Context, request.Request) (*pipeline.Result, error)

func (f assemblerFunc) Assemble(ctx context.Context, r request.Request) (*pipeline.Result, error) {
	return f(ctx, r)
}

func TestRunMergesSkipped(t *testing.T) {
	skipped := []request.Skipped{
		{Index: 1, Label: "#2", Reason: "no text", Err: errors.New(errors.ErrCodeInvalidRequest, "no text")},
		{Index: 4, Label: "#5", Reason: "bad json", Err: errors.New(errors.ErrCodeInvalidRequest, "bad json")},
	}
	sum := NewRunner(&scripted{}, 1, nil).Run(context.Background(), requests("a", "c", "d"), skipped...)

	want := []string{"a", "#2", "c", "d", "#5"}
	if len(sum.Items) != len(want) {
		t.Fatalf("len(Items) = %d, want %d", len(sum.Items), len(want))
	}
	for i, label := range want {
		if sum.Items[i].Label != label {
			t.Errorf("Items[%d].Label = %q, want %q", i, sum.Items[i].Label, label)
		}
	}
	if sum.Failed != 2 || sum.Succeeded != 3 {
		t.Errorf("counts = %d ok / %d failed, want 3/2", sum.Succeeded, sum.Failed)
	}
	if sum.Items[1].Status != StatusInvalid || sum.Items[1].Code != errors.ErrCodeInvalidRequest {
		t.Errorf("Items[1] = %+v", sum.Items[1])
	}
}
