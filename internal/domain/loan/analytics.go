package loan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/medloan/medloan/internal/domain/identity"
)

// Analytics is a provider-scoped portfolio summary. ByDay holds the earliest
// seven distinct calendar days in ascending order; that matches the upstream
// trend behavior even though it reads like "last 7 days".
type Analytics struct {
	TotalRequests       int                       `json:"total_requests"`
	Approved            int                       `json:"approved"`
	Rejected            int                       `json:"rejected"`
	Pending             int                       `json:"pending"`
	ApprovalRate        float64                   `json:"approval_rate"` // percent, 1 decimal
	ByRisk              map[string]int            `json:"by_risk"`
	ByLocation          map[string]int            `json:"by_location"`
	RiskStatusBreakdown map[string]map[string]int `json:"risk_status_breakdown"`
	ByTenure            map[string]int            `json:"by_tenure"`
	ByDay               []DayCount                `json:"by_day"`
	AgeBuckets          map[string]int            `json:"age_buckets"`
}

const trendDays = 7

// ProviderAnalytics aggregates the calling provider's own requests. It is
// read-only and tolerates reading a slightly stale snapshot.
func (s *Service) ProviderAnalytics(ctx context.Context, providerEmail string) (*Analytics, error) {
	provider, err := s.providers.GetByEmail(ctx, providerEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: provider %s", ErrNotFound, providerEmail)
		}
		return nil, err
	}
	providerID := provider.ProviderID

	statusCounts, err := s.loans.StatusCounts(ctx, providerID)
	if err != nil {
		return nil, err
	}
	tierCounts, err := s.loans.TierCounts(ctx, providerID)
	if err != nil {
		return nil, err
	}
	locationCounts, err := s.loans.LocationCounts(ctx, providerID)
	if err != nil {
		return nil, err
	}
	tierStatusCounts, err := s.loans.TierStatusCounts(ctx, providerID)
	if err != nil {
		return nil, err
	}
	tenureCounts, err := s.loans.TenureCounts(ctx, providerID)
	if err != nil {
		return nil, err
	}
	dailyCounts, err := s.loans.DailyCounts(ctx, providerID, trendDays)
	if err != nil {
		return nil, err
	}
	ageBuckets, err := s.loans.AgeBucketCounts(ctx, providerID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range statusCounts {
		total += count
	}
	approved := statusCounts[StatusApproved]

	out := &Analytics{
		TotalRequests:       total,
		Approved:            approved,
		Rejected:            statusCounts[StatusRejected],
		Pending:             statusCounts[StatusPending],
		ApprovalRate:        approvalRate(approved, total),
		ByRisk:              tierCounts,
		ByLocation:          locationCounts,
		RiskStatusBreakdown: tierStatusCounts,
		ByTenure:            make(map[string]int, len(tenureCounts)),
		ByDay:               dailyCounts,
		AgeBuckets:          ageBuckets,
	}
	for tenure, count := range tenureCounts {
		out.ByTenure[strconv.Itoa(tenure)] = count
	}
	return out, nil
}

// approvalRate is approved/total as a percentage rounded to one decimal,
// and 0 when the provider has no requests.
func approvalRate(approved, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(approved)/float64(total)*1000) / 10
}
