package identity

import (
	"context"
	"fmt"
)

type Service struct {
	registry      *Registry
	practitioners PractitionerRepository
	organizations OrganizationRepository
}

func NewService(registry *Registry, practitioners PractitionerRepository, organizations OrganizationRepository) *Service {
	return &Service{registry: registry, practitioners: practitioners, organizations: organizations}
}

// Register creates a profile for the given role.
func (s *Service) Register(ctx context.Context, role string, in ProfileInput) (*Profile, error) {
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if in.FullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	store, err := s.registry.Store(role)
	if err != nil {
		return nil, err
	}
	return store.Register(ctx, in)
}

// GetProfile returns the caller's own profile.
func (s *Service) GetProfile(ctx context.Context, role, email string) (*Profile, error) {
	store, err := s.registry.Store(role)
	if err != nil {
		return nil, err
	}
	return store.GetByEmail(ctx, email)
}

// UpdateProfile updates the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, role, email string, in ProfileInput) (*Profile, error) {
	store, err := s.registry.Store(role)
	if err != nil {
		return nil, err
	}
	return store.Update(ctx, email, in)
}

// Recipient is a share destination shown on the patient's share screen.
type Recipient struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Specialization *string `json:"specialization,omitempty"`
	HospitalName   *string `json:"hospital_name,omitempty"`
	Location       *string `json:"location,omitempty"`
}

// RecipientList groups share destinations by kind.
type RecipientList struct {
	Doctors   []Recipient `json:"doctors"`
	Hospitals []Recipient `json:"hospitals"`
}

// ListRecipients returns the practitioners and organizations a patient can
// share a profile with.
func (s *Service) ListRecipients(ctx context.Context, limit, offset int) (*RecipientList, error) {
	practitioners, _, err := s.practitioners.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	organizations, _, err := s.organizations.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	out := &RecipientList{
		Doctors:   make([]Recipient, 0, len(practitioners)),
		Hospitals: make([]Recipient, 0, len(organizations)),
	}
	for _, p := range practitioners {
		out.Doctors = append(out.Doctors, Recipient{
			ID:             p.DoctorID,
			Name:           p.FullName,
			Specialization: p.Specialization,
			HospitalName:   p.HospitalName,
		})
	}
	for _, o := range organizations {
		out.Hospitals = append(out.Hospitals, Recipient{
			ID:       o.HospitalID,
			Name:     o.Name,
			Location: o.Location,
		})
	}
	return out, nil
}
