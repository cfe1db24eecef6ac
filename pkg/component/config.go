package component

import "time"

// Config holds all configuration options for the component engine.
type Config struct {
	// SearchPaths is the ordered list of directories scanned for component
	// source files. Earlier entries shadow later ones when the same name
	// appears under more than one root.
	SearchPaths []string `json:"search_paths"`

	// Extension is the file suffix that marks a component source file.
	Extension string `json:"extension"`

	// CacheNamespace prefixes every distributed cache key. Deployments that
	// need to share a cache with an existing installation must use the same
	// namespace, since keys are compared byte for byte.
	CacheNamespace string `json:"cache_namespace"`

	// CollaboratorTimeout bounds each individual cache and storage call.
	// Zero means calls inherit whatever deadline the caller's context
	// already carries.
	CollaboratorTimeout time.Duration `json:"collaborator_timeout"`
}

// DefaultConfig returns a Config with safe default values. SearchPaths is
// empty by default and must be set before any component can be discovered.
func DefaultConfig() Config {
	return Config{
		SearchPaths:         []string{},
		Extension:           ".comp.html",
		CacheNamespace:      "byblis",
		CollaboratorTimeout: 5 * time.Second,
	}
}
