package sharing

import (
	"context"

	"github.com/google/uuid"
)

// SharedProfileRepository stores shared profile records.
type SharedProfileRepository interface {
	Create(ctx context.Context, p *SharedProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*SharedProfile, error)
	MarkConverted(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*SharedProfile, int, error)
	ListByDoctorID(ctx context.Context, doctorID string, limit, offset int) ([]*SharedProfile, int, error)
	ListByHospitalID(ctx context.Context, hospitalID string, limit, offset int) ([]*SharedProfile, int, error)
}
