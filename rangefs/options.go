package rangefs

import "github.com/rs/zerolog"

// -----------------------------------------------------------------------------
// File options
// -----------------------------------------------------------------------------

type fileConfig struct {
	logger zerolog.Logger
	verify bool
}

// FileOption configures Handle.Open.
type FileOption func(*fileConfig)

// WithFileLogger logs each range fetch at debug level.
func WithFileLogger(l zerolog.Logger) FileOption {
	return func(c *fileConfig) {
		c.logger = l
	}
}

// WithoutVerify skips the metadata request Open makes to confirm the object
// exists. The returned File then performs no I/O until the first Read.
func WithoutVerify() FileOption {
	return func(c *fileConfig) {
		c.verify = false
	}
}

func newFileConfig(opts []FileOption) *fileConfig {
	cfg := &fileConfig{
		logger: zerolog.Nop(),
		verify: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// -----------------------------------------------------------------------------
// Catalog options
// -----------------------------------------------------------------------------

type catalogConfig struct {
	logger     zerolog.Logger
	containers []string
}

// CatalogOption configures a CatalogBuilder.
type CatalogOption func(*catalogConfig)

// WithCatalogLogger sets the logger used during enumeration.
func WithCatalogLogger(l zerolog.Logger) CatalogOption {
	return func(c *catalogConfig) {
		c.logger = l
	}
}

// WithContainers restricts enumeration to the named containers, in the
// given order. The store's container listing is not consulted.
func WithContainers(names ...string) CatalogOption {
	return func(c *catalogConfig) {
		c.containers = append(c.containers, names...)
	}
}
