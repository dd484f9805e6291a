package sharing

import (
	"time"

	"github.com/google/uuid"
)

// SharedProfile maps to the shared_profile table. It records that a clinical
// subset of an applicant's profile was disclosed to a practitioner and/or
// organization. Converted stays false until the paired bundle exists.
type SharedProfile struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ApplicantID        uuid.UUID  `db:"applicant_id" json:"applicant_id"`
	PatientID          string     `db:"patient_id" json:"patient_id"`
	PatientName        string     `db:"patient_name" json:"patient_name"`
	DoctorID           *string    `db:"doctor_id" json:"doctor_id,omitempty"`
	HospitalID         *string    `db:"hospital_id" json:"hospital_id,omitempty"`
	Gender             *string    `db:"gender" json:"gender,omitempty"`
	DOB                *time.Time `db:"dob" json:"dob,omitempty"`
	BloodGroup         *string    `db:"blood_group" json:"blood_group,omitempty"`
	Allergies          *string    `db:"allergies" json:"allergies,omitempty"`
	ExistingConditions *string    `db:"existing_conditions" json:"existing_conditions,omitempty"`
	VisitReason        *string    `db:"visit_reason" json:"visit_reason,omitempty"`
	Converted          bool       `db:"converted" json:"converted"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}
