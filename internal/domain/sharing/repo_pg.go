package sharing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medloan/medloan/internal/platform/db"
)

type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type sharedProfileRepoPG struct {
	pool *pgxpool.Pool
}

func NewSharedProfileRepo(pool *pgxpool.Pool) SharedProfileRepository {
	return &sharedProfileRepoPG{pool: pool}
}

func (r *sharedProfileRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const sharedProfileCols = `id, applicant_id, patient_id, patient_name, doctor_id, hospital_id,
	gender, dob, blood_group, allergies, existing_conditions, visit_reason, converted, created_at`

func scanSharedProfile(row pgx.Row) (*SharedProfile, error) {
	var p SharedProfile
	err := row.Scan(
		&p.ID, &p.ApplicantID, &p.PatientID, &p.PatientName, &p.DoctorID, &p.HospitalID,
		&p.Gender, &p.DOB, &p.BloodGroup, &p.Allergies, &p.ExistingConditions, &p.VisitReason,
		&p.Converted, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *sharedProfileRepoPG) Create(ctx context.Context, p *SharedProfile) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared_profile (
			id, applicant_id, patient_id, patient_name, doctor_id, hospital_id,
			gender, dob, blood_group, allergies, existing_conditions, visit_reason, converted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.ApplicantID, p.PatientID, p.PatientName, p.DoctorID, p.HospitalID,
		p.Gender, p.DOB, p.BloodGroup, p.Allergies, p.ExistingConditions, p.VisitReason, p.Converted,
	)
	return err
}

func (r *sharedProfileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SharedProfile, error) {
	return scanSharedProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sharedProfileCols+` FROM shared_profile WHERE id = $1`, id))
}

func (r *sharedProfileRepoPG) MarkConverted(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE shared_profile SET converted = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sharedProfileRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM shared_profile WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sharedProfileRepoPG) list(ctx context.Context, where string, arg any, limit, offset int) ([]*SharedProfile, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM shared_profile WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+sharedProfileCols+` FROM shared_profile WHERE `+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var profiles []*SharedProfile
	for rows.Next() {
		p, err := scanSharedProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

func (r *sharedProfileRepoPG) ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*SharedProfile, int, error) {
	return r.list(ctx, `applicant_id = $1`, applicantID, limit, offset)
}

func (r *sharedProfileRepoPG) ListByDoctorID(ctx context.Context, doctorID string, limit, offset int) ([]*SharedProfile, int, error) {
	return r.list(ctx, `doctor_id = $1`, doctorID, limit, offset)
}

func (r *sharedProfileRepoPG) ListByHospitalID(ctx context.Context, hospitalID string, limit, offset int) ([]*SharedProfile, int, error) {
	return r.list(ctx, `hospital_id = $1`, hospitalID, limit, offset)
}
