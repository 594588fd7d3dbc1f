package gateways

import (
	"context"

	"github.com/ochairo/preflight/internal/domain/entities"
)

// ManifestGuard verifies the integrity of a dependency manifest before it is installed
type ManifestGuard interface {
	VerifyManifest(ctx context.Context, cfg entities.DependencyConfig) error
}
