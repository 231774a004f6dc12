package fonts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/flopp/go-findfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/imprint/pkg/errors"
)

// Store is a directory of font files addressable by filename.
type Store struct {
	dir     string
	entries map[string]*entry // fixed at construction
	names   []string
	system  sync.Map // name -> *entry, only used with WithSystemFonts
	opts    storeOptions
}

type entry struct {
	path     string
	identity string
	once     sync.Once
	font     *opentype.Font
	err      error
}

type storeOptions struct {
	logger      *log.Logger
	systemFonts bool
	hinting     font.Hinting
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *log.Logger) StoreOption {
	return func(o *storeOptions) { o.logger = l }
}

// WithSystemFonts makes names missing from the directory resolvable from the
// operating system font directories.
func WithSystemFonts() StoreOption {
	return func(o *storeOptions) { o.systemFonts = true }
}

// WithHinting sets the hinting used for new faces (default none, which keeps
// measured widths independent of the pixel grid).
func WithHinting(h font.Hinting) StoreOption {
	return func(o *storeOptions) { o.hinting = h }
}

// NewStore enumerates dir. A missing or unreadable directory yields an empty
// store and a CONFIGURATION_ERROR; the store is still usable (every
// resolution fails with FONT_UNAVAILABLE unless system fonts are enabled).
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	s := &Store{dir: dir, entries: map[string]*entry{}}
	for _, opt := range opts {
		opt(&s.opts)
	}
	if s.opts.logger == nil {
		s.opts.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		return s, errors.Wrap(errors.ErrCodeConfiguration, err, "read font directory %s", dir)
	}
	for _, it := range items {
		if it.IsDir() || !Extensions[strings.ToLower(filepath.Ext(it.Name()))] {
			continue
		}
		info, err := it.Info()
		if err != nil {
			continue
		}
		s.entries[it.Name()] = &entry{
			path:     filepath.Join(dir, it.Name()),
			identity: fmt.Sprintf("%s:%d:%d", it.Name(), info.Size(), info.ModTime().UnixNano()),
		}
		s.names = append(s.names, it.Name())
	}
	sort.Strings(s.names)
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Names lists the font files in the store directory, sorted.
func (s *Store) Names() []string { return append([]string(nil), s.names...) }

// Has reports whether name can be loaded.
func (s *Store) Has(name string) bool {
	_, err := s.load(name)
	return err == nil
}

// Resolve returns a face for the reference chosen in priority order
// override, templateDefault, fallback (empty references are skipped). When
// the chosen reference is missing or unparsable, a warning is logged and the
// fallback is used directly; the template default is never tried in place of
// a missing override. If the fallback is unusable too the result is
// FONT_UNAVAILABLE.
func (s *Store) Resolve(override, templateDefault, fallback string, size float64) (*Face, error) {
	if size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "font size must be positive, got %g", size)
	}
	chosen := override
	if chosen == "" {
		chosen = templateDefault
	}
	if chosen == "" {
		chosen = fallback
	}
	if chosen == "" {
		return nil, errors.New(errors.ErrCodeFontUnavailable, "no font configured")
	}

	face, err := s.newFace(chosen, size)
	if err == nil {
		return face, nil
	}
	if chosen == fallback {
		return nil, errors.Wrap(errors.ErrCodeFontUnavailable, err, "fallback font %q not found in %s", fallback, s.dir)
	}
	if fallback == "" {
		return nil, errors.Wrap(errors.ErrCodeFontUnavailable, err, "font %q unavailable and no fallback configured", chosen)
	}
	s.opts.logger.Warn("font not available, using fallback", "font", chosen, "fallback", fallback, "err", err)

	face, err = s.newFace(fallback, size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontUnavailable, err, "fallback font %q not found in %s", fallback, s.dir)
	}
	return face, nil
}

func (s *Store) newFace(name string, size float64) (*Face, error) {
	e, err := s.load(name)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(e.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72, // 1pt == 1px
		Hinting: s.opts.hinting,
	})
	if err != nil {
		return nil, err
	}
	return &Face{name: name, identity: e.identity, size: size, face: face}, nil
}

// load returns the parsed font for name, parsing it on first use.
func (s *Store) load(name string) (*entry, error) {
	if err := errors.ValidateName("font", name); err != nil {
		return nil, err
	}
	e, ok := s.entries[name]
	if !ok {
		e, ok = s.lookupSystem(name)
	}
	if !ok {
		return nil, fmt.Errorf("font %q not found", name)
	}
	e.once.Do(func() {
		data, err := os.ReadFile(e.path)
		if err != nil {
			e.err = err
			return
		}
		e.font, e.err = opentype.Parse(data)
	})
	if e.err != nil {
		return nil, fmt.Errorf("load font %q: %w", name, e.err)
	}
	return e, nil
}

func (s *Store) lookupSystem(name string) (*entry, bool) {
	if !s.opts.systemFonts {
		return nil, false
	}
	if v, ok := s.system.Load(name); ok {
		return v.(*entry), true
	}
	path, err := findfont.Find(name)
	if err != nil {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	e := &entry{path: path, identity: fmt.Sprintf("%s:%d:%d", path, info.Size(), info.ModTime().UnixNano())}
	v, _ := s.system.LoadOrStore(name, e)
	return v.(*entry), true
}
