package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/imprint/pkg/errors"
)

// Registry is an immutable set of template specs keyed by identifier.
// It is safe for concurrent use; nothing mutates it after Load returns.
type Registry struct {
	specs map[string]Spec
	ids   []string
}

// Skipped describes a registry entry that was rejected during loading.
type Skipped struct {
	ID     string
	Reason string
}

// New builds a registry from already-validated specs.
// Specs without an ID take the map key.
func New(specs map[string]Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for id, s := range specs {
		if s.ID == "" {
			s.ID = id
		}
		r.specs[id] = s
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r
}

// Empty returns a registry with no templates; every lookup fails.
func Empty() *Registry { return New(nil) }

// Lookup returns the spec for id or a TEMPLATE_NOT_FOUND error.
func (r *Registry) Lookup(id string) (Spec, error) {
	if r != nil {
		if s, ok := r.specs[id]; ok {
			return s, nil
		}
	}
	return Spec{}, errors.New(errors.ErrCodeTemplateNotFound, "template %q not found", id)
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, err := r.Lookup(id)
	return err == nil
}

// IDs returns all template identifiers in sorted order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.ids...)
}

// Len returns the number of templates.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}

// Load reads a registry file. The format is chosen by extension: ".toml"
// for TOML, anything else is parsed as JSON. Invalid entries are skipped and
// reported through logger; an unreadable or malformed file is a
// CONFIGURATION_ERROR.
func Load(path string, logger *log.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read template registry %s", path)
	}
	format := "json"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	reg, skipped, err := Parse(bytes.NewReader(data), format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "parse template registry %s", path)
	}
	if logger != nil {
		for _, s := range skipped {
			logger.Warn("skipping invalid template", "id", s.ID, "reason", s.Reason)
		}
	}
	return reg, nil
}

// LoadOrEmpty is Load that degrades to an empty registry on failure.
// The error is returned for logging; the registry is never nil.
func LoadOrEmpty(path string, logger *log.Logger) (*Registry, error) {
	reg, err := Load(path, logger)
	if err != nil {
		return Empty(), err
	}
	return reg, nil
}

// Parse decodes a registry document in the given format ("json" or "toml").
func Parse(r io.Reader, format string) (*Registry, []Skipped, error) {
	raw := map[string]json.RawMessage{}
	records := map[string]record{}
	var skipped []Skipped

	switch format {
	case "toml":
		var doc map[string]record
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, nil, err
		}
		records = doc
	case "json":
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, nil, err
		}
		for id, msg := range raw {
			var rec record
			if err := json.Unmarshal(msg, &rec); err != nil {
				skipped = append(skipped, Skipped{ID: id, Reason: err.Error()})
				continue
			}
			records[id] = rec
		}
	default:
		return nil, nil, fmt.Errorf("unsupported registry format %q", format)
	}

	specs := make(map[string]Spec, len(records))
	for id, rec := range records {
		if err := errors.ValidateName("template id", id); err != nil {
			skipped = append(skipped, Skipped{ID: id, Reason: errors.UserMessage(err)})
			continue
		}
		s, err := rec.spec(id)
		if err != nil {
			skipped = append(skipped, Skipped{ID: id, Reason: err.Error()})
			continue
		}
		specs[id] = s
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].ID < skipped[j].ID })
	return New(specs), skipped, nil
}
