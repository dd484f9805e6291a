package clinical

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StoredBundle maps to the fhir_bundle table. The bundle document is kept as
// jsonb and is immutable once written; re-sharing replaces the whole row.
type StoredBundle struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	SharedProfileID uuid.UUID       `db:"shared_profile_id" json:"shared_profile_id"`
	ApplicantID     uuid.UUID       `db:"applicant_id" json:"applicant_id"`
	SubjectID       string          `db:"subject_id" json:"subject_id"`
	Resource        json.RawMessage `db:"resource" json:"resource"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
