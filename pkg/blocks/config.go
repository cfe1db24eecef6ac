package blocks

// Config holds all configuration options for the block-template engine.
type Config struct {
	// TemplateExt is the suffix that marks a full, executable template.
	TemplateExt string `json:"template_ext"`

	// PartialExt is the suffix that marks a shared partial. Partials are
	// parsed into the same set but never reported as executable templates.
	PartialExt string `json:"partial_ext"`
}

// DefaultConfig returns a Config with the standard file suffixes.
func DefaultConfig() Config {
	return Config{
		TemplateExt: ".tmpl.html",
		PartialExt:  ".part.html",
	}
}
