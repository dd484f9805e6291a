package sharing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medloan/medloan/internal/domain/clinical"
	"github.com/medloan/medloan/internal/domain/identity"
	"github.com/medloan/medloan/internal/platform/db"
)

type Service struct {
	tx            db.TxRunner
	profiles      SharedProfileRepository
	bundles       clinical.BundleRepository
	applicants    identity.ApplicantRepository
	practitioners identity.PractitionerRepository
	organizations identity.OrganizationRepository
	logger        zerolog.Logger
}

func NewService(
	tx db.TxRunner,
	profiles SharedProfileRepository,
	bundles clinical.BundleRepository,
	applicants identity.ApplicantRepository,
	practitioners identity.PractitionerRepository,
	organizations identity.OrganizationRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tx:            tx,
		profiles:      profiles,
		bundles:       bundles,
		applicants:    applicants,
		practitioners: practitioners,
		organizations: organizations,
		logger:        logger,
	}
}

// ShareInput is a patient's request to disclose their profile.
type ShareInput struct {
	DoctorID    *string `json:"doctor_id,omitempty"`
	HospitalID  *string `json:"hospital_id,omitempty"`
	VisitReason *string `json:"visit_reason,omitempty"`
}

// Share runs the whole pipeline inside one transaction: insert the record
// with converted=false, build the bundle from a snapshot of the applicant,
// persist it, then flip converted. A failure at any step rolls the record
// back, so converted=true is never observed without a bundle.
func (s *Service) Share(ctx context.Context, applicantEmail string, in ShareInput) (*SharedProfile, error) {
	applicant, err := s.applicants.GetByEmail(ctx, applicantEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: applicant %s", ErrNotFound, applicantEmail)
		}
		return nil, err
	}

	record := &SharedProfile{
		ApplicantID:        applicant.ID,
		PatientID:          applicant.PatientID,
		PatientName:        applicant.FullName,
		DoctorID:           in.DoctorID,
		HospitalID:         in.HospitalID,
		Gender:             applicant.Gender,
		DOB:                applicant.DOB,
		BloodGroup:         applicant.BloodGroup,
		Allergies:          applicant.Allergies,
		ExistingConditions: applicant.ExistingConditions,
		VisitReason:        in.VisitReason,
		Converted:          false,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.profiles.Create(ctx, record); err != nil {
			return err
		}

		// Missing lookups are tolerated; the builder treats an absent
		// reference as omitted context.
		var practitioner *identity.Practitioner
		if in.DoctorID != nil {
			practitioner, err = s.practitioners.GetByDoctorID(ctx, *in.DoctorID)
			if err != nil && !errors.Is(err, identity.ErrNotFound) {
				return err
			}
		}
		var organization *identity.Organization
		if in.HospitalID != nil {
			organization, err = s.organizations.GetByHospitalID(ctx, *in.HospitalID)
			if err != nil && !errors.Is(err, identity.ErrNotFound) {
				return err
			}
		}

		built := clinical.BuildBundle(clinical.BuildInput{
			Applicant:    applicant,
			Practitioner: practitioner,
			Organization: organization,
			VisitReason:  in.VisitReason,
		})
		raw, err := json.Marshal(built.Bundle)
		if err != nil {
			return fmt.Errorf("marshal bundle: %w", err)
		}

		if err := s.bundles.Create(ctx, &clinical.StoredBundle{
			SharedProfileID: record.ID,
			ApplicantID:     applicant.ID,
			SubjectID:       built.SubjectID,
			Resource:        raw,
		}); err != nil {
			return err
		}

		if err := s.profiles.MarkConverted(ctx, record.ID); err != nil {
			return err
		}
		record.Converted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shared_profile_id", record.ID.String()).
		Str("patient_id", record.PatientID).
		Msg("profile shared")
	return record, nil
}

// Delete removes a shared profile and its bundle. Only the owning applicant
// may delete; a missing bundle is not an error.
func (s *Service) Delete(ctx context.Context, callerEmail string, id uuid.UUID) error {
	record, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	applicant, err := s.applicants.GetByEmail(ctx, callerEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if record.ApplicantID != applicant.ID {
		return ErrUnauthorized
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.bundles.DeleteBySharedProfileID(ctx, id); err != nil && !errors.Is(err, clinical.ErrNotFound) {
			return err
		}
		return s.profiles.Delete(ctx, id)
	})
}

// ListForApplicant returns the caller's own shared profiles.
func (s *Service) ListForApplicant(ctx context.Context, email string, limit, offset int) ([]*SharedProfile, int, error) {
	applicant, err := s.applicants.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: applicant %s", ErrNotFound, email)
		}
		return nil, 0, err
	}
	return s.profiles.ListByApplicant(ctx, applicant.ID, limit, offset)
}

// ListForDoctor returns profiles shared with the calling practitioner.
func (s *Service) ListForDoctor(ctx context.Context, email string, limit, offset int) ([]*SharedProfile, int, error) {
	practitioner, err := s.practitioners.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: practitioner %s", ErrNotFound, email)
		}
		return nil, 0, err
	}
	return s.profiles.ListByDoctorID(ctx, practitioner.DoctorID, limit, offset)
}

// ListForHospital returns profiles shared with the calling organization.
func (s *Service) ListForHospital(ctx context.Context, email string, limit, offset int) ([]*SharedProfile, int, error) {
	organization, err := s.organizations.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: organization %s", ErrNotFound, email)
		}
		return nil, 0, err
	}
	return s.profiles.ListByHospitalID(ctx, organization.HospitalID, limit, offset)
}

// ListBundlesForApplicant returns the caller's own stored clinical bundles.
func (s *Service) ListBundlesForApplicant(ctx context.Context, email string, limit, offset int) ([]*clinical.StoredBundle, int, error) {
	applicant, err := s.applicants.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: applicant %s", ErrNotFound, email)
		}
		return nil, 0, err
	}
	return s.bundles.ListByApplicant(ctx, applicant.ID, limit, offset)
}
