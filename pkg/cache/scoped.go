package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The server uses it to keep its keys apart from other deployments sharing
// one Redis instance.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "kgview:prod:")
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
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ViewKey generates a prefixed key for view model caching.
func (k *ScopedKeyer) ViewKey(graphHash string, opts ViewKeyOpts) string {
	return k.prefix + k.inner.ViewKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(viewHash, opts)
}
