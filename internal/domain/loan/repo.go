package loan

import (
	"context"

	"github.com/google/uuid"
)

// DayCount is one calendar day's request count.
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// LoanRepository stores loan requests and serves the aggregation primitives
// the analytics are built from. Update performs an optimistic version check
// and returns ErrConflict when the row moved underneath the caller.
type LoanRepository interface {
	Create(ctx context.Context, l *LoanRequest) error
	GetByLoanID(ctx context.Context, loanID string) (*LoanRequest, error)
	Update(ctx context.Context, l *LoanRequest) error
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*LoanRequest, int, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*LoanRequest, int, error)

	StatusCounts(ctx context.Context, providerID string) (map[string]int, error)
	TierCounts(ctx context.Context, providerID string) (map[string]int, error)
	LocationCounts(ctx context.Context, providerID string) (map[string]int, error)
	TierStatusCounts(ctx context.Context, providerID string) (map[string]map[string]int, error)
	TenureCounts(ctx context.Context, providerID string) (map[int]int, error)
	DailyCounts(ctx context.Context, providerID string, days int) ([]DayCount, error)
	AgeBucketCounts(ctx context.Context, providerID string) (map[string]int, error)
}
