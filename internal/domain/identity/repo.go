package identity

import (
	"context"

	"github.com/google/uuid"
)

// ApplicantRepository stores patient profiles.
type ApplicantRepository interface {
	Create(ctx context.Context, a *Applicant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Applicant, error)
	GetByEmail(ctx context.Context, email string) (*Applicant, error)
	GetByPatientID(ctx context.Context, patientID string) (*Applicant, error)
	Update(ctx context.Context, a *Applicant) error
	List(ctx context.Context, limit, offset int) ([]*Applicant, int, error)
}

// PractitionerRepository stores doctor profiles.
type PractitionerRepository interface {
	Create(ctx context.Context, p *Practitioner) error
	GetByEmail(ctx context.Context, email string) (*Practitioner, error)
	GetByDoctorID(ctx context.Context, doctorID string) (*Practitioner, error)
	Update(ctx context.Context, p *Practitioner) error
	List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error)
}

// OrganizationRepository stores hospital profiles.
type OrganizationRepository interface {
	Create(ctx context.Context, o *Organization) error
	GetByEmail(ctx context.Context, email string) (*Organization, error)
	GetByHospitalID(ctx context.Context, hospitalID string) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	List(ctx context.Context, limit, offset int) ([]*Organization, int, error)
}

// LoanProviderRepository stores loan provider profiles.
type LoanProviderRepository interface {
	Create(ctx context.Context, p *LoanProvider) error
	GetByEmail(ctx context.Context, email string) (*LoanProvider, error)
	GetByProviderID(ctx context.Context, providerID string) (*LoanProvider, error)
	Update(ctx context.Context, p *LoanProvider) error
	List(ctx context.Context, limit, offset int) ([]*LoanProvider, int, error)
}
