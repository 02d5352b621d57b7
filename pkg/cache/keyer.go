package cache

// Keyer derives cache keys.
type Keyer interface {
	// ViewKey keys a built view model by canonical graph hash.
	ViewKey(graphHash string, opts ViewKeyOpts) string
	// ArtifactKey keys a rendered artifact by view model hash.
	ArtifactKey(viewHash string, opts ArtifactKeyOpts) string
}

// ViewKeyOpts holds the build options that affect a view model.
type ViewKeyOpts struct {
	Locale string `json:"locale"`
}

// ArtifactKeyOpts holds the render options that affect an artifact.
type ArtifactKeyOpts struct {
	Format           string  `json:"format"`
	Detailed         bool    `json:"detailed,omitempty"`
	ClusterSubgraphs bool    `json:"cluster_subgraphs,omitempty"`
	TemplateHash     string  `json:"template_hash,omitempty"`
	Scale            float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes its inputs into prefixed SHA-256 keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ViewKey returns "view:<sha256>".
func (DefaultKeyer) ViewKey(graphHash string, opts ViewKeyOpts) string {
	return hashKey("view", graphHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", viewHash, opts)
}
