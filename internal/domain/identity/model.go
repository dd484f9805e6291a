package identity

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Applicant maps to the applicant table. It carries the demographic and
// clinical attributes the sharing pipeline snapshots at share time.
type Applicant struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	PatientID          string     `db:"patient_id" json:"patient_id"`
	Email              string     `db:"email" json:"email"`
	FullName           string     `db:"full_name" json:"full_name"`
	Gender             *string    `db:"gender" json:"gender,omitempty"`
	DOB                *time.Time `db:"dob" json:"dob,omitempty"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	Address            *string    `db:"address" json:"address,omitempty"`
	BloodGroup         *string    `db:"blood_group" json:"blood_group,omitempty"`
	Allergies          *string    `db:"allergies" json:"allergies,omitempty"`
	ExistingConditions *string    `db:"existing_conditions" json:"existing_conditions,omitempty"`
	ProfileCompleted   bool       `db:"profile_completed" json:"profile_completed"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Practitioner maps to the practitioner table.
type Practitioner struct {
	ID             uuid.UUID `db:"id" json:"id"`
	DoctorID       string    `db:"doctor_id" json:"doctor_id"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	HospitalName   *string   `db:"hospital_name" json:"hospital_name,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Organization maps to the organization table.
type Organization struct {
	ID         uuid.UUID `db:"id" json:"id"`
	HospitalID string    `db:"hospital_id" json:"hospital_id"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	Location   *string   `db:"location" json:"location,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// LoanProvider maps to the loan_provider table.
type LoanProvider struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProviderID string    `db:"provider_id" json:"provider_id"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Business id generators. Collisions are handled by the unique index on the
// column; callers retry with a fresh id on a duplicate.

func NewPatientID(now time.Time) string {
	return fmt.Sprintf("PAT-%s-%04d", now.Format("20060102"), rand.Intn(10000))
}

func NewDoctorID() string {
	return fmt.Sprintf("DR-%06d", rand.Intn(1000000))
}

func NewHospitalID() string {
	return fmt.Sprintf("HOSP-%06d", rand.Intn(1000000))
}

func NewProviderID() string {
	return fmt.Sprintf("LOANP-%06d", rand.Intn(1000000))
}
