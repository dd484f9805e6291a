package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medloan/medloan/internal/domain/identity"
	"github.com/medloan/medloan/internal/platform/auth"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionAccept  = "accept"
)

var validDecisionActions = map[string]bool{
	ActionApprove: true,
	ActionReject:  true,
}

var validResponseActions = map[string]bool{
	ActionAccept: true,
	ActionReject: true,
}

type Service struct {
	loans      LoanRepository
	applicants identity.ApplicantRepository
	providers  identity.LoanProviderRepository
	logger     zerolog.Logger
}

func NewService(
	loans LoanRepository,
	applicants identity.ApplicantRepository,
	providers identity.LoanProviderRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{loans: loans, applicants: applicants, providers: providers, logger: logger}
}

// ApplyInput is a loan application. Numeric fields accept strings or numbers.
type ApplyInput struct {
	ProviderID        string  `json:"provider_id"`
	RequiredAmount    FlexInt `json:"required_amount"`
	MonthlyIncome     FlexInt `json:"monthly_income"`
	ExistingLoans     string  `json:"existing_loans"`
	Insurance         string  `json:"insurance"`
	InsuranceCoverage string  `json:"insurance_coverage"`
	PreferredTenure   FlexInt `json:"preferred_tenure"`
	TreatmentType     string  `json:"treatment_type"`
	LoanPurpose       string  `json:"loan_purpose"`
	MedicalReason     string  `json:"medical_reason"`
	HospitalName      string  `json:"hospital_name"`
	HospitalLocation  string  `json:"hospital_location"`
}

// Apply creates a scored loan request. The decision at creation is automatic
// and one-shot: High rejects, Low approves in full, Medium stays Pending and
// carries the revised offer (80% amount, tenure+12) for the applicant.
func (s *Service) Apply(ctx context.Context, applicantEmail string, in ApplyInput) (*LoanRequest, error) {
	if in.ProviderID == "" {
		return nil, fmt.Errorf("%w: provider_id is required", ErrValidation)
	}
	if in.RequiredAmount.Int() <= 0 {
		return nil, fmt.Errorf("%w: required_amount must be positive", ErrValidation)
	}

	applicant, err := s.applicants.GetByEmail(ctx, applicantEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: applicant %s", ErrNotFound, applicantEmail)
		}
		return nil, err
	}
	provider, err := s.providers.GetByProviderID(ctx, in.ProviderID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: provider %s", ErrNotFound, in.ProviderID)
		}
		return nil, err
	}

	tier, score := Score(RiskInput{
		RequiredAmount:    in.RequiredAmount.Int(),
		MonthlyIncome:     in.MonthlyIncome.Int(),
		ExistingLoans:     in.ExistingLoans,
		Insurance:         in.Insurance,
		InsuranceCoverage: in.InsuranceCoverage,
		PreferredTenure:   in.PreferredTenure.Int(),
		TreatmentType:     in.TreatmentType,
	})

	request := &LoanRequest{
		ApplicantID:       applicant.ID,
		PatientID:         applicant.PatientID,
		ApplicantName:     applicant.FullName,
		ApplicantDOB:      applicant.DOB,
		ProviderID:        provider.ProviderID,
		RequiredAmount:    in.RequiredAmount.Int(),
		MonthlyIncome:     in.MonthlyIncome.Int(),
		ExistingLoans:     in.ExistingLoans,
		Insurance:         in.Insurance,
		InsuranceCoverage: in.InsuranceCoverage,
		PreferredTenure:   in.PreferredTenure.Int(),
		Risk:              tier,
		RiskScore:         score,
	}
	setOptional(&request.LoanPurpose, in.LoanPurpose)
	setOptional(&request.MedicalReason, in.MedicalReason)
	setOptional(&request.TreatmentType, in.TreatmentType)
	setOptional(&request.HospitalName, in.HospitalName)
	setOptional(&request.HospitalLocation, in.HospitalLocation)

	now := time.Now().UTC()
	switch tier {
	case TierHigh:
		request.Status = StatusRejected
		request.RejectedAt = &now
	case TierLow:
		approved := request.RequiredAmount
		request.Status = StatusApproved
		request.ApprovedAmount = &approved
		request.ApprovedAt = &now
	default:
		request.Status = StatusPending
		revisedAmount := request.RequiredAmount * 80 / 100
		revisedTenure := request.PreferredTenure + 12
		request.RevisedAmount = &revisedAmount
		request.RevisedTenure = &revisedTenure
	}

	if err := s.loans.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("loan_id", request.LoanID).
		Str("risk", string(tier)).
		Int("score", score).
		Str("status", request.Status).
		Msg("loan application scored")
	return request, nil
}

// DecisionInput is a provider's manual decision on a pending request.
type DecisionInput struct {
	Action         string  `json:"action"` // approve / reject
	ApprovedAmount FlexInt `json:"approved_amount"`
}

// ProviderDecision applies a manual decision to a Pending request owned by
// the calling provider. Terminal requests conflict rather than re-transition.
func (s *Service) ProviderDecision(ctx context.Context, providerEmail, loanID string, in DecisionInput) (*LoanRequest, error) {
	if !validDecisionActions[in.Action] {
		return nil, fmt.Errorf("%w: action must be %q or %q", ErrValidation, ActionApprove, ActionReject)
	}

	provider, err := s.providers.GetByEmail(ctx, providerEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: provider %s", ErrNotFound, providerEmail)
		}
		return nil, err
	}
	request, err := s.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if request.ProviderID != provider.ProviderID {
		return nil, ErrUnauthorized
	}
	if request.Terminal() {
		return nil, fmt.Errorf("%w: loan %s is already %s", ErrConflict, loanID, request.Status)
	}

	now := time.Now().UTC()
	decidedBy := provider.ProviderID
	request.DecidedBy = &decidedBy

	if in.Action == ActionApprove {
		amount := in.ApprovedAmount.Int()
		if amount <= 0 || amount > request.RequiredAmount {
			return nil, fmt.Errorf("%w: approved_amount must be in (0, %d]", ErrValidation, request.RequiredAmount)
		}
		request.ApprovedAmount = &amount
		request.ApprovedAt = &now
		request.Status = StatusApproved
	} else {
		request.RejectedAt = &now
		request.Status = StatusRejected
	}

	if err := s.loans.Update(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("loan_id", request.LoanID).
		Str("provider_id", provider.ProviderID).
		Str("status", request.Status).
		Msg("provider decision recorded")
	return request, nil
}

// RespondToRevisedPlan is the applicant's answer to the Medium-tier revised
// offer. Accepting overwrites amount and tenure with the revised values.
func (s *Service) RespondToRevisedPlan(ctx context.Context, applicantEmail, loanID, action string) (*LoanRequest, error) {
	if !validResponseActions[action] {
		return nil, fmt.Errorf("%w: action must be %q or %q", ErrValidation, ActionAccept, ActionReject)
	}

	applicant, err := s.applicants.GetByEmail(ctx, applicantEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: applicant %s", ErrNotFound, applicantEmail)
		}
		return nil, err
	}
	request, err := s.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if request.ApplicantID != applicant.ID {
		return nil, ErrUnauthorized
	}
	if request.Terminal() {
		return nil, fmt.Errorf("%w: loan %s is already %s", ErrConflict, loanID, request.Status)
	}
	if request.RevisedAmount == nil || request.RevisedTenure == nil {
		return nil, fmt.Errorf("%w: loan %s carries no revised offer", ErrValidation, loanID)
	}

	now := time.Now().UTC()
	if action == ActionAccept {
		request.RequiredAmount = *request.RevisedAmount
		request.PreferredTenure = *request.RevisedTenure
		approved := *request.RevisedAmount
		request.ApprovedAmount = &approved
		request.ApprovedAt = &now
		request.Status = StatusApproved
	} else {
		request.RejectedAt = &now
		request.Status = StatusRejected
	}

	if err := s.loans.Update(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("loan_id", request.LoanID).
		Str("action", action).
		Str("status", request.Status).
		Msg("revised plan response recorded")
	return request, nil
}

// GetLoan returns a single request to its applicant or its provider.
func (s *Service) GetLoan(ctx context.Context, callerRole, callerEmail, loanID string) (*LoanRequest, error) {
	request, err := s.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	switch callerRole {
	case auth.RoleAdmin:
		return request, nil
	case auth.RoleLoanProvider:
		provider, err := s.providers.GetByEmail(ctx, callerEmail)
		if err == nil && provider.ProviderID == request.ProviderID {
			return request, nil
		}
	default:
		applicant, err := s.applicants.GetByEmail(ctx, callerEmail)
		if err == nil && applicant.ID == request.ApplicantID {
			return request, nil
		}
	}
	return nil, ErrUnauthorized
}

// ProviderLoanView decorates a request with the display-only suggested
// amount for the provider's review screen.
type ProviderLoanView struct {
	*LoanRequest
	SuggestedAmount int `json:"suggested_amount"`
}

// ListProviderRequests returns the provider's incoming requests.
func (s *Service) ListProviderRequests(ctx context.Context, providerEmail string, limit, offset int) ([]*ProviderLoanView, int, error) {
	provider, err := s.providers.GetByEmail(ctx, providerEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: provider %s", ErrNotFound, providerEmail)
		}
		return nil, 0, err
	}
	requests, total, err := s.loans.ListByProvider(ctx, provider.ProviderID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*ProviderLoanView, 0, len(requests))
	for _, request := range requests {
		views = append(views, &ProviderLoanView{
			LoanRequest:     request,
			SuggestedAmount: SuggestedAmount(request.RequiredAmount, request.Risk),
		})
	}
	return views, total, nil
}

// ListApplicantLoans returns the caller's own loan requests.
func (s *Service) ListApplicantLoans(ctx context.Context, applicantEmail string, limit, offset int) ([]*LoanRequest, int, error) {
	applicant, err := s.applicants.GetByEmail(ctx, applicantEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: applicant %s", ErrNotFound, applicantEmail)
		}
		return nil, 0, err
	}
	return s.loans.ListByApplicant(ctx, applicant.ID, limit, offset)
}

func setOptional(dst **string, v string) {
	if v != "" {
		*dst = &v
	}
}
