package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medloan/medloan/internal/domain/identity"
	"github.com/medloan/medloan/internal/platform/auth"
)

type mockLoanRepo struct {
	byLoanID map[string]*LoanRequest

	statusCounts     map[string]int
	tierCounts       map[string]int
	locationCounts   map[string]int
	tierStatusCounts map[string]map[string]int
	tenureCounts     map[int]int
	dailyCounts      []DayCount
	ageBuckets       map[string]int
}

func newMockLoanRepo() *mockLoanRepo {
	return &mockLoanRepo{byLoanID: make(map[string]*LoanRequest)}
}

func (m *mockLoanRepo) Create(_ context.Context, l *LoanRequest) error {
	l.ID = uuid.New()
	if l.LoanID == "" {
		l.LoanID = NewLoanID()
	}
	l.Version = 1
	l.CreatedAt = time.Now().UTC()
	cp := *l
	m.byLoanID[l.LoanID] = &cp
	return nil
}

func (m *mockLoanRepo) GetByLoanID(_ context.Context, loanID string) (*LoanRequest, error) {
	l, ok := m.byLoanID[loanID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockLoanRepo) Update(_ context.Context, l *LoanRequest) error {
	stored, ok := m.byLoanID[l.LoanID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != l.Version {
		return ErrConflict
	}
	cp := *l
	cp.Version++
	m.byLoanID[l.LoanID] = &cp
	l.Version++
	return nil
}

func (m *mockLoanRepo) ListByProvider(_ context.Context, providerID string, _, _ int) ([]*LoanRequest, int, error) {
	var out []*LoanRequest
	for _, l := range m.byLoanID {
		if l.ProviderID == providerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockLoanRepo) ListByApplicant(_ context.Context, applicantID uuid.UUID, _, _ int) ([]*LoanRequest, int, error) {
	var out []*LoanRequest
	for _, l := range m.byLoanID {
		if l.ApplicantID == applicantID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockLoanRepo) StatusCounts(context.Context, string) (map[string]int, error) {
	return m.statusCounts, nil
}

func (m *mockLoanRepo) TierCounts(context.Context, string) (map[string]int, error) {
	return m.tierCounts, nil
}

func (m *mockLoanRepo) LocationCounts(context.Context, string) (map[string]int, error) {
	return m.locationCounts, nil
}

func (m *mockLoanRepo) TierStatusCounts(context.Context, string) (map[string]map[string]int, error) {
	return m.tierStatusCounts, nil
}

func (m *mockLoanRepo) TenureCounts(context.Context, string) (map[int]int, error) {
	return m.tenureCounts, nil
}

func (m *mockLoanRepo) DailyCounts(context.Context, string, int) ([]DayCount, error) {
	return m.dailyCounts, nil
}

func (m *mockLoanRepo) AgeBucketCounts(context.Context, string) (map[string]int, error) {
	return m.ageBuckets, nil
}

type mockApplicantRepo struct {
	byEmail map[string]*identity.Applicant
}

func (m *mockApplicantRepo) Create(context.Context, *identity.Applicant) error { return nil }

func (m *mockApplicantRepo) GetByID(context.Context, uuid.UUID) (*identity.Applicant, error) {
	return nil, identity.ErrNotFound
}

func (m *mockApplicantRepo) GetByEmail(_ context.Context, email string) (*identity.Applicant, error) {
	if a, ok := m.byEmail[email]; ok {
		return a, nil
	}
	return nil, identity.ErrNotFound
}

func (m *mockApplicantRepo) GetByPatientID(context.Context, string) (*identity.Applicant, error) {
	return nil, identity.ErrNotFound
}

func (m *mockApplicantRepo) Update(context.Context, *identity.Applicant) error { return nil }

func (m *mockApplicantRepo) List(context.Context, int, int) ([]*identity.Applicant, int, error) {
	return nil, 0, nil
}

type mockProviderRepo struct {
	byEmail map[string]*identity.LoanProvider
	byID    map[string]*identity.LoanProvider
}

func (m *mockProviderRepo) Create(context.Context, *identity.LoanProvider) error { return nil }

func (m *mockProviderRepo) GetByEmail(_ context.Context, email string) (*identity.LoanProvider, error) {
	if p, ok := m.byEmail[email]; ok {
		return p, nil
	}
	return nil, identity.ErrNotFound
}

func (m *mockProviderRepo) GetByProviderID(_ context.Context, providerID string) (*identity.LoanProvider, error) {
	if p, ok := m.byID[providerID]; ok {
		return p, nil
	}
	return nil, identity.ErrNotFound
}

func (m *mockProviderRepo) Update(context.Context, *identity.LoanProvider) error { return nil }

func (m *mockProviderRepo) List(context.Context, int, int) ([]*identity.LoanProvider, int, error) {
	return nil, 0, nil
}

const (
	testApplicantEmail = "asha@example.com"
	testProviderEmail  = "medfin@example.com"
	testProviderID     = "LOANP-000777"
)

func newTestService() (*Service, *mockLoanRepo, *identity.Applicant) {
	applicant := &identity.Applicant{
		ID:        uuid.New(),
		PatientID: "PAT-20250101-0001",
		Email:     testApplicantEmail,
		FullName:  "Asha Rao",
	}
	provider := &identity.LoanProvider{
		ID:         uuid.New(),
		ProviderID: testProviderID,
		Email:      testProviderEmail,
		Name:       "MedFin Capital",
	}
	loans := newMockLoanRepo()
	svc := NewService(
		loans,
		&mockApplicantRepo{byEmail: map[string]*identity.Applicant{applicant.Email: applicant}},
		&mockProviderRepo{
			byEmail: map[string]*identity.LoanProvider{provider.Email: provider},
			byID:    map[string]*identity.LoanProvider{provider.ProviderID: provider},
		},
		zerolog.Nop(),
	)
	return svc, loans, applicant
}

func applyInput() ApplyInput {
	return ApplyInput{
		ProviderID:        testProviderID,
		RequiredAmount:    100000,
		MonthlyIncome:     5000,
		PreferredTenure:   12,
		ExistingLoans:     "no",
		Insurance:         "yes",
		InsuranceCoverage: "yes",
		TreatmentType:     "routine checkup",
		HospitalLocation:  "Pune",
	}
}

func TestApply_MediumCarriesRevisedOffer(t *testing.T) {
	svc, _, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if request.Risk != TierMedium || request.RiskScore != 45 {
		t.Fatalf("risk = %s/%d, want Medium/45", request.Risk, request.RiskScore)
	}
	if request.Status != StatusPending {
		t.Fatalf("status = %s, want Pending", request.Status)
	}
	if request.RevisedAmount == nil || *request.RevisedAmount != 80000 {
		t.Fatalf("revised amount = %v, want 80000", request.RevisedAmount)
	}
	if request.RevisedTenure == nil || *request.RevisedTenure != 24 {
		t.Fatalf("revised tenure = %v, want 24", request.RevisedTenure)
	}
	if request.ApprovedAmount != nil {
		t.Fatal("pending request must not carry an approved amount")
	}
}

func TestApply_LowApprovesInFull(t *testing.T) {
	svc, _, _ := newTestService()

	in := applyInput()
	in.MonthlyIncome = 50000 // EMI well under a third of income
	request, err := svc.Apply(context.Background(), testApplicantEmail, in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if request.Risk != TierLow {
		t.Fatalf("risk = %s, want Low", request.Risk)
	}
	if request.Status != StatusApproved {
		t.Fatalf("status = %s, want Approved", request.Status)
	}
	if request.ApprovedAmount == nil || *request.ApprovedAmount != 100000 {
		t.Fatalf("approved amount = %v, want the full required amount", request.ApprovedAmount)
	}
	if request.ApprovedAt == nil {
		t.Fatal("approved request must carry an approval timestamp")
	}
}

func TestApply_HighRejectsImmediately(t *testing.T) {
	svc, _, _ := newTestService()

	in := applyInput()
	in.ExistingLoans = "yes"
	in.Insurance = "no"
	in.TreatmentType = "emergency surgery"
	request, err := svc.Apply(context.Background(), testApplicantEmail, in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if request.Risk != TierHigh {
		t.Fatalf("risk = %s, want High", request.Risk)
	}
	if request.Status != StatusRejected {
		t.Fatalf("status = %s, want Rejected", request.Status)
	}
	if request.RejectedAt == nil {
		t.Fatal("rejected request must carry a rejection timestamp")
	}
}

func TestApply_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	in := applyInput()
	in.ProviderID = ""
	if _, err := svc.Apply(context.Background(), testApplicantEmail, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing provider_id: err = %v, want ErrValidation", err)
	}

	in = applyInput()
	in.RequiredAmount = 0
	if _, err := svc.Apply(context.Background(), testApplicantEmail, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero amount: err = %v, want ErrValidation", err)
	}

	in = applyInput()
	in.ProviderID = "LOANP-999999"
	if _, err := svc.Apply(context.Background(), testApplicantEmail, in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown provider: err = %v, want ErrNotFound", err)
	}

	if _, err := svc.Apply(context.Background(), "ghost@example.com", applyInput()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown applicant: err = %v, want ErrNotFound", err)
	}
}

func TestProviderDecision_ApproveBounds(t *testing.T) {
	svc, _, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, amount := range []int{0, -5, 100001} {
		_, err := svc.ProviderDecision(context.Background(), testProviderEmail, request.LoanID, DecisionInput{
			Action:         ActionApprove,
			ApprovedAmount: FlexInt(amount),
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("amount %d: err = %v, want ErrValidation", amount, err)
		}
	}

	decided, err := svc.ProviderDecision(context.Background(), testProviderEmail, request.LoanID, DecisionInput{
		Action:         ActionApprove,
		ApprovedAmount: 90000,
	})
	if err != nil {
		t.Fatalf("ProviderDecision: %v", err)
	}
	if decided.Status != StatusApproved {
		t.Fatalf("status = %s, want Approved", decided.Status)
	}
	if decided.ApprovedAmount == nil || *decided.ApprovedAmount != 90000 {
		t.Fatalf("approved amount = %v, want 90000", decided.ApprovedAmount)
	}
	if decided.DecidedBy == nil || *decided.DecidedBy != testProviderID {
		t.Fatalf("decided_by = %v, want %s", decided.DecidedBy, testProviderID)
	}
}

func TestProviderDecision_TerminalConflicts(t *testing.T) {
	svc, _, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := svc.ProviderDecision(context.Background(), testProviderEmail, request.LoanID, DecisionInput{Action: ActionReject}); err != nil {
		t.Fatalf("first decision: %v", err)
	}

	// A second decision on a settled request conflicts instead of silently
	// re-approving it.
	_, err = svc.ProviderDecision(context.Background(), testProviderEmail, request.LoanID, DecisionInput{
		Action:         ActionApprove,
		ApprovedAmount: 50000,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("re-decision: err = %v, want ErrConflict", err)
	}
}

func TestProviderDecision_WrongProvider(t *testing.T) {
	svc, loans, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	stored := loans.byLoanID[request.LoanID]
	stored.ProviderID = "LOANP-000001"

	_, err = svc.ProviderDecision(context.Background(), testProviderEmail, request.LoanID, DecisionInput{Action: ActionReject})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRespondToRevisedPlan_AcceptAdoptsOffer(t *testing.T) {
	svc, _, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	accepted, err := svc.RespondToRevisedPlan(context.Background(), testApplicantEmail, request.LoanID, ActionAccept)
	if err != nil {
		t.Fatalf("RespondToRevisedPlan: %v", err)
	}
	if accepted.Status != StatusApproved {
		t.Fatalf("status = %s, want Approved", accepted.Status)
	}
	if accepted.RequiredAmount != 80000 || accepted.PreferredTenure != 24 {
		t.Fatalf("terms = %d/%d, want the revised 80000/24", accepted.RequiredAmount, accepted.PreferredTenure)
	}
	if accepted.ApprovedAmount == nil || *accepted.ApprovedAmount != 80000 {
		t.Fatalf("approved amount = %v, want 80000", accepted.ApprovedAmount)
	}
}

func TestRespondToRevisedPlan_RejectAndTerminalGuard(t *testing.T) {
	svc, _, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rejected, err := svc.RespondToRevisedPlan(context.Background(), testApplicantEmail, request.LoanID, ActionReject)
	if err != nil {
		t.Fatalf("RespondToRevisedPlan: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("status = %s, want Rejected", rejected.Status)
	}

	_, err = svc.RespondToRevisedPlan(context.Background(), testApplicantEmail, request.LoanID, ActionAccept)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("response after settle: err = %v, want ErrConflict", err)
	}
}

func TestRespondToRevisedPlan_RequiresRevisedOffer(t *testing.T) {
	svc, loans, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	stored := loans.byLoanID[request.LoanID]
	stored.RevisedAmount = nil
	stored.RevisedTenure = nil

	_, err = svc.RespondToRevisedPlan(context.Background(), testApplicantEmail, request.LoanID, ActionAccept)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGetLoan_Authorization(t *testing.T) {
	svc, _, _ := newTestService()

	request, err := svc.Apply(context.Background(), testApplicantEmail, applyInput())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, err := svc.GetLoan(context.Background(), auth.RolePatient, testApplicantEmail, request.LoanID); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := svc.GetLoan(context.Background(), auth.RoleLoanProvider, testProviderEmail, request.LoanID); err != nil {
		t.Fatalf("owning provider: %v", err)
	}
	if _, err := svc.GetLoan(context.Background(), auth.RoleAdmin, "admin@example.com", request.LoanID); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if _, err := svc.GetLoan(context.Background(), auth.RolePatient, "ghost@example.com", request.LoanID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger: err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.GetLoan(context.Background(), auth.RolePatient, testApplicantEmail, "LOAN-000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown loan: err = %v, want ErrNotFound", err)
	}
}

func TestListProviderRequests_DecoratesSuggestedAmount(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Apply(context.Background(), testApplicantEmail, applyInput()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	views, total, err := svc.ListProviderRequests(context.Background(), testProviderEmail, 20, 0)
	if err != nil {
		t.Fatalf("ListProviderRequests: %v", err)
	}
	if total != 1 || len(views) != 1 {
		t.Fatalf("got %d views (total %d), want 1", len(views), total)
	}
	// Medium tier suggests 70% of the required amount.
	if views[0].SuggestedAmount != 70000 {
		t.Fatalf("suggested amount = %d, want 70000", views[0].SuggestedAmount)
	}
}

func TestListApplicantLoans(t *testing.T) {
	svc, _, applicant := newTestService()

	if _, err := svc.Apply(context.Background(), testApplicantEmail, applyInput()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	loans, total, err := svc.ListApplicantLoans(context.Background(), testApplicantEmail, 20, 0)
	if err != nil {
		t.Fatalf("ListApplicantLoans: %v", err)
	}
	if total != 1 || len(loans) != 1 {
		t.Fatalf("got %d loans (total %d), want 1", len(loans), total)
	}
	if loans[0].ApplicantID != applicant.ID {
		t.Fatal("returned loan does not belong to the applicant")
	}
}
