package cache

// ArtifactKeyOpts lists every input that determines a document's bytes.
type ArtifactKeyOpts struct {
	Plan      any      // normalized request plan
	Templates any      // template specs used, in page order
	Fonts     []string // resolved font identities, in page order
	Sources   []string // base image or document identities, in page order
	DPI       [2]float64
}

// Keyer generates cache keys.
type Keyer interface {
	ArtifactKey(opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes its inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(opts ArtifactKeyOpts) string {
	return hashKey("artifact", opts.Plan, opts.Templates, opts.Fonts, opts.Sources, opts.DPI)
}

// ScopedKeyer prefixes every key of an inner keyer, giving deployments that
// share one Redis their own namespace.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(opts)
}
