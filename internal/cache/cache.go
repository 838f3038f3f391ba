// Package cache memoizes validation results keyed by detection identity,
// version and platform. The cache is an optimization only: every caller
// must behave identically whether it is empty or warm.
package cache

import (
	"context"
	"fmt"

	"github.com/threatforge/detection-platform/internal/models"
)

// Key identifies one validation outcome. Because the version is part of the
// key, a content change (which bumps the version) invalidates prior entries
// by missing under the new key; no explicit invalidation is needed.
type Key struct {
	DetectionID string
	Version     string
	Platform    models.PlatformType
}

func (k Key) String() string {
	return fmt.Sprintf("validation:%s:%s:%s", k.DetectionID, k.Version, k.Platform)
}

// Cache stores the most recent validation result per key. Put is an
// unconditional overwrite; last writer wins.
type Cache interface {
	Get(ctx context.Context, key Key) (*models.ValidationResult, bool)
	Put(ctx context.Context, key Key, result *models.ValidationResult)
}
