package loan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// terminalStatuses gate re-transition; Approved and Rejected are final.
var terminalStatuses = map[string]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// LoanRequest maps to the loan_request table. Requests are never deleted;
// they form the audit trail the analytics read from.
type LoanRequest struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	LoanID            string     `db:"loan_id" json:"loan_id"`
	ApplicantID       uuid.UUID  `db:"applicant_id" json:"applicant_id"`
	PatientID         string     `db:"patient_id" json:"patient_id"`
	ApplicantName     string     `db:"applicant_name" json:"applicant_name"`
	ApplicantDOB      *time.Time `db:"applicant_dob" json:"applicant_dob,omitempty"`
	ProviderID        string     `db:"provider_id" json:"provider_id"`
	RequiredAmount    int        `db:"required_amount" json:"required_amount"`
	ApprovedAmount    *int       `db:"approved_amount" json:"approved_amount,omitempty"`
	MonthlyIncome     int        `db:"monthly_income" json:"monthly_income"`
	ExistingLoans     string     `db:"existing_loans" json:"existing_loans"`
	Insurance         string     `db:"insurance" json:"insurance"`
	InsuranceCoverage string     `db:"insurance_coverage" json:"insurance_coverage"`
	PreferredTenure   int        `db:"preferred_tenure" json:"preferred_tenure"`
	Risk              Tier       `db:"risk" json:"risk"`
	RiskScore         int        `db:"risk_score" json:"risk_score"`
	Status            string     `db:"status" json:"status"`
	LoanPurpose       *string    `db:"loan_purpose" json:"loan_purpose,omitempty"`
	MedicalReason     *string    `db:"medical_reason" json:"medical_reason,omitempty"`
	TreatmentType     *string    `db:"treatment_type" json:"treatment_type,omitempty"`
	HospitalName      *string    `db:"hospital_name" json:"hospital_name,omitempty"`
	HospitalLocation  *string    `db:"hospital_location" json:"hospital_location,omitempty"`
	RevisedAmount     *int       `db:"revised_amount" json:"revised_amount,omitempty"`
	RevisedTenure     *int       `db:"revised_tenure" json:"revised_tenure,omitempty"`
	DecidedBy         *string    `db:"decided_by" json:"decided_by,omitempty"`
	ApprovedAt        *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt        *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
	Version           int        `db:"version" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the request is in a final state.
func (l *LoanRequest) Terminal() bool {
	return terminalStatuses[l.Status]
}

// NewLoanID generates a business id for a loan request. Collisions are
// handled by the unique index; callers retry with a fresh id.
func NewLoanID() string {
	return fmt.Sprintf("LOAN-%06d", rand.Intn(1000000))
}

// FlexInt is an int that also accepts JSON strings ("120000", "12") and
// floats, truncating toward zero. Empty strings and null decode as 0.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q", s)
		}
		*f = FlexInt(int(v))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexInt(int(v))
	return nil
}

func (f FlexInt) Int() int { return int(f) }
