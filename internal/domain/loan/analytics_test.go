package loan

import (
	"context"
	"errors"
	"testing"
)

func TestProviderAnalytics_EmptyPortfolio(t *testing.T) {
	svc, loans, _ := newTestService()
	loans.statusCounts = map[string]int{}

	analytics, err := svc.ProviderAnalytics(context.Background(), testProviderEmail)
	if err != nil {
		t.Fatalf("ProviderAnalytics: %v", err)
	}
	if analytics.TotalRequests != 0 {
		t.Fatalf("total = %d, want 0", analytics.TotalRequests)
	}
	if analytics.ApprovalRate != 0 {
		t.Fatalf("approval rate = %v, want 0 with no requests", analytics.ApprovalRate)
	}
}

func TestProviderAnalytics_Aggregates(t *testing.T) {
	svc, loans, _ := newTestService()
	loans.statusCounts = map[string]int{
		StatusApproved: 1,
		StatusRejected: 1,
		StatusPending:  1,
	}
	loans.tierCounts = map[string]int{"Low": 1, "Medium": 1, "High": 1}
	loans.locationCounts = map[string]int{"Pune": 2, "Unknown": 1}
	loans.tierStatusCounts = map[string]map[string]int{
		"Medium": {StatusPending: 1},
		"Low":    {StatusApproved: 1},
		"High":   {StatusRejected: 1},
	}
	loans.tenureCounts = map[int]int{12: 2, 24: 1}
	loans.dailyCounts = []DayCount{{Day: "2025-01-01", Count: 2}, {Day: "2025-01-02", Count: 1}}
	loans.ageBuckets = map[string]int{"18-30": 2, "46-60": 1}

	analytics, err := svc.ProviderAnalytics(context.Background(), testProviderEmail)
	if err != nil {
		t.Fatalf("ProviderAnalytics: %v", err)
	}
	if analytics.TotalRequests != 3 {
		t.Fatalf("total = %d, want 3", analytics.TotalRequests)
	}
	if analytics.Approved != 1 || analytics.Rejected != 1 || analytics.Pending != 1 {
		t.Fatalf("status split = %d/%d/%d, want 1/1/1",
			analytics.Approved, analytics.Rejected, analytics.Pending)
	}
	// 1 of 3 approved rounds to one decimal.
	if analytics.ApprovalRate != 33.3 {
		t.Fatalf("approval rate = %v, want 33.3", analytics.ApprovalRate)
	}
	if analytics.ByTenure["12"] != 2 || analytics.ByTenure["24"] != 1 {
		t.Fatalf("tenure buckets = %v, want keyed by month count", analytics.ByTenure)
	}
	if len(analytics.ByDay) != 2 || analytics.ByDay[0].Day != "2025-01-01" {
		t.Fatalf("daily trend = %v, want ascending days", analytics.ByDay)
	}
	if analytics.AgeBuckets["18-30"] != 2 {
		t.Fatalf("age buckets = %v", analytics.AgeBuckets)
	}
	if analytics.RiskStatusBreakdown["Medium"][StatusPending] != 1 {
		t.Fatalf("risk/status breakdown = %v", analytics.RiskStatusBreakdown)
	}
}

func TestProviderAnalytics_UnknownProvider(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ProviderAnalytics(context.Background(), "ghost@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApprovalRate_Rounding(t *testing.T) {
	tests := []struct {
		approved, total int
		want            float64
	}{
		{0, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{1, 1, 100},
		{1, 8, 12.5},
	}
	for _, tt := range tests {
		if got := approvalRate(tt.approved, tt.total); got != tt.want {
			t.Errorf("approvalRate(%d, %d) = %v, want %v", tt.approved, tt.total, got, tt.want)
		}
	}
}
