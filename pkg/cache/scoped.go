package cache

// ScopedKeyer wraps a Keyer with a fixed prefix. The server scopes keys by
// course so that one course's entries can be told apart from another's:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "course:42:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GraphKey implements Keyer.
func (k *ScopedKeyer) GraphKey(recordsHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(recordsHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
