package clinical

import (
	"context"

	"github.com/google/uuid"
)

// BundleRepository stores built clinical bundles.
type BundleRepository interface {
	Create(ctx context.Context, b *StoredBundle) error
	GetBySharedProfileID(ctx context.Context, sharedProfileID uuid.UUID) (*StoredBundle, error)
	DeleteBySharedProfileID(ctx context.Context, sharedProfileID uuid.UUID) error
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*StoredBundle, int, error)
}
