// Package backend selects a rangefs transport from a ConnectionConfig.
package backend

import (
	"context"
	"fmt"
	"slices"

	"github.com/justapithecus/rangefs/rangefs"
	"github.com/justapithecus/rangefs/rangefs/minio"
	"github.com/justapithecus/rangefs/rangefs/s3"
)

// Names lists the backends Dial understands.
var Names = []string{s3.BackendName, minio.BackendName}

// Dial validates cfg and constructs the transport it names.
// No request is sent; connectivity problems surface on first use.
func Dial(ctx context.Context, cfg rangefs.ConnectionConfig) (rangefs.Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case s3.BackendName:
		return s3.Dial(ctx, cfg)
	case minio.BackendName:
		return minio.Dial(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q (want one of %v)", rangefs.ErrInvalidConfig, cfg.Backend, Names)
	}
}

// Supported reports whether name is a known backend.
func Supported(name string) bool {
	return slices.Contains(Names, name)
}
