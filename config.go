package sprite

// Config holds renderer configuration.
type Config struct {
	// InitialBatchSize is the vertex capacity the batcher starts with.
	// Must hold at least one quad. Default: 6144 (1024 quads).
	InitialBatchSize int

	// BatchIncrease is the vertex count added per growth step when a
	// frame overflows the current capacity. Growth adds this step as
	// many times as needed, never doubles. Default: 3072 (512 quads).
	BatchIncrease int

	// AtlasPageSize is the width = height of each atlas page texture.
	// Must be a power of 2. Default: 2048.
	AtlasPageSize int

	// MaxAtlasPages limits how many pages the atlas may open before
	// packing requests start falling back to direct draws. Default: 8.
	MaxAtlasPages int

	// AtlasPadding is the pixel gap kept between packed regions.
	// Default: 1.
	AtlasPadding int

	// HalfTexelOffset enables the sub-texel UV inset that stops
	// neighboring atlas regions from bleeding into sampled quads.
	// Default: true.
	HalfTexelOffset bool
}

// DefaultConfig returns the default renderer configuration.
func DefaultConfig() Config {
	return Config{
		InitialBatchSize: 1024 * VerticesPerQuad,
		BatchIncrease:    512 * VerticesPerQuad,
		AtlasPageSize:    2048,
		MaxAtlasPages:    8,
		AtlasPadding:     1,
		HalfTexelOffset:  true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InitialBatchSize < VerticesPerQuad {
		return &ConfigError{Field: "InitialBatchSize", Reason: "must hold at least one quad (6 vertices)"}
	}
	if c.BatchIncrease < VerticesPerQuad {
		return &ConfigError{Field: "BatchIncrease", Reason: "must be at least one quad (6 vertices)"}
	}
	if c.AtlasPageSize < 64 {
		return &ConfigError{Field: "AtlasPageSize", Reason: "must be at least 64"}
	}
	if c.AtlasPageSize > 8192 {
		return &ConfigError{Field: "AtlasPageSize", Reason: "must be at most 8192"}
	}
	if c.AtlasPageSize&(c.AtlasPageSize-1) != 0 {
		return &ConfigError{Field: "AtlasPageSize", Reason: "must be power of 2"}
	}
	if c.MaxAtlasPages < 1 {
		return &ConfigError{Field: "MaxAtlasPages", Reason: "must be at least 1"}
	}
	if c.MaxAtlasPages > 256 {
		return &ConfigError{Field: "MaxAtlasPages", Reason: "must be at most 256"}
	}
	if c.AtlasPadding < 0 {
		return &ConfigError{Field: "AtlasPadding", Reason: "must be non-negative"}
	}
	if c.AtlasPadding >= c.AtlasPageSize/4 {
		return &ConfigError{Field: "AtlasPadding", Reason: "must be less than a quarter of AtlasPageSize"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "sprite: invalid config." + e.Field + ": " + e.Reason
}
