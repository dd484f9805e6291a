package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medloan/medloan/internal/platform/db"
)

// queryable is satisfied by *pgxpool.Pool and pgx.Tx.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

func mapPgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// -- Applicant Repository --

type applicantRepoPG struct {
	pool *pgxpool.Pool
}

func NewApplicantRepo(pool *pgxpool.Pool) ApplicantRepository {
	return &applicantRepoPG{pool: pool}
}

const applicantCols = `id, patient_id, email, full_name, gender, dob, phone, address,
	blood_group, allergies, existing_conditions, profile_completed, created_at, updated_at`

func scanApplicant(row pgx.Row) (*Applicant, error) {
	var a Applicant
	err := row.Scan(
		&a.ID, &a.PatientID, &a.Email, &a.FullName, &a.Gender, &a.DOB, &a.Phone, &a.Address,
		&a.BloodGroup, &a.Allergies, &a.ExistingConditions, &a.ProfileCompleted, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &a, nil
}

func (r *applicantRepoPG) Create(ctx context.Context, a *Applicant) error {
	a.ID = uuid.New()
	// Regenerate the business id on a collision; the email unique index still
	// surfaces as ErrConflict.
	for attempt := 0; ; attempt++ {
		if a.PatientID == "" || attempt > 0 {
			a.PatientID = NewPatientID(time.Now())
		}
		_, err := conn(ctx, r.pool).Exec(ctx, `
			INSERT INTO applicant (
				id, patient_id, email, full_name, gender, dob, phone, address,
				blood_group, allergies, existing_conditions, profile_completed
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			a.ID, a.PatientID, a.Email, a.FullName, a.Gender, a.DOB, a.Phone, a.Address,
			a.BloodGroup, a.Allergies, a.ExistingConditions, a.ProfileCompleted,
		)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) && attempt < 3 {
			var exists bool
			if checkErr := conn(ctx, r.pool).QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM applicant WHERE email = $1)`, a.Email).Scan(&exists); checkErr == nil && !exists {
				continue
			}
		}
		return mapPgErr(err)
	}
}

func (r *applicantRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Applicant, error) {
	return scanApplicant(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+applicantCols+` FROM applicant WHERE id = $1`, id))
}

func (r *applicantRepoPG) GetByEmail(ctx context.Context, email string) (*Applicant, error) {
	return scanApplicant(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+applicantCols+` FROM applicant WHERE email = $1`, email))
}

func (r *applicantRepoPG) GetByPatientID(ctx context.Context, patientID string) (*Applicant, error) {
	return scanApplicant(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+applicantCols+` FROM applicant WHERE patient_id = $1`, patientID))
}

func (r *applicantRepoPG) Update(ctx context.Context, a *Applicant) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE applicant SET
			full_name=$2, gender=$3, dob=$4, phone=$5, address=$6,
			blood_group=$7, allergies=$8, existing_conditions=$9,
			profile_completed=$10, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.FullName, a.Gender, a.DOB, a.Phone, a.Address,
		a.BloodGroup, a.Allergies, a.ExistingConditions, a.ProfileCompleted,
	)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *applicantRepoPG) List(ctx context.Context, limit, offset int) ([]*Applicant, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM applicant`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+applicantCols+` FROM applicant ORDER BY full_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var applicants []*Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, 0, err
		}
		applicants = append(applicants, a)
	}
	return applicants, total, rows.Err()
}

// -- Practitioner Repository --

type practitionerRepoPG struct {
	pool *pgxpool.Pool
}

func NewPractitionerRepo(pool *pgxpool.Pool) PractitionerRepository {
	return &practitionerRepoPG{pool: pool}
}

const practitionerCols = `id, doctor_id, email, full_name, specialization, hospital_name, phone, created_at, updated_at`

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(
		&p.ID, &p.DoctorID, &p.Email, &p.FullName, &p.Specialization, &p.HospitalName, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &p, nil
}

func (r *practitionerRepoPG) Create(ctx context.Context, p *Practitioner) error {
	p.ID = uuid.New()
	for attempt := 0; ; attempt++ {
		if p.DoctorID == "" || attempt > 0 {
			p.DoctorID = NewDoctorID()
		}
		_, err := conn(ctx, r.pool).Exec(ctx, `
			INSERT INTO practitioner (id, doctor_id, email, full_name, specialization, hospital_name, phone)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.DoctorID, p.Email, p.FullName, p.Specialization, p.HospitalName, p.Phone,
		)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) && attempt < 3 {
			var exists bool
			if checkErr := conn(ctx, r.pool).QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM practitioner WHERE email = $1)`, p.Email).Scan(&exists); checkErr == nil && !exists {
				continue
			}
		}
		return mapPgErr(err)
	}
}

func (r *practitionerRepoPG) GetByEmail(ctx context.Context, email string) (*Practitioner, error) {
	return scanPractitioner(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioner WHERE email = $1`, email))
}

func (r *practitionerRepoPG) GetByDoctorID(ctx context.Context, doctorID string) (*Practitioner, error) {
	return scanPractitioner(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioner WHERE doctor_id = $1`, doctorID))
}

func (r *practitionerRepoPG) Update(ctx context.Context, p *Practitioner) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE practitioner SET
			full_name=$2, specialization=$3, hospital_name=$4, phone=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.Specialization, p.HospitalName, p.Phone,
	)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *practitionerRepoPG) List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM practitioner`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+practitionerCols+` FROM practitioner ORDER BY full_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var practitioners []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, 0, err
		}
		practitioners = append(practitioners, p)
	}
	return practitioners, total, rows.Err()
}

// -- Organization Repository --

type organizationRepoPG struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepoPG{pool: pool}
}

const organizationCols = `id, hospital_id, email, name, location, phone, created_at, updated_at`

func scanOrganization(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.HospitalID, &o.Email, &o.Name, &o.Location, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &o, nil
}

func (r *organizationRepoPG) Create(ctx context.Context, o *Organization) error {
	o.ID = uuid.New()
	for attempt := 0; ; attempt++ {
		if o.HospitalID == "" || attempt > 0 {
			o.HospitalID = NewHospitalID()
		}
		_, err := conn(ctx, r.pool).Exec(ctx, `
			INSERT INTO organization (id, hospital_id, email, name, location, phone)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, o.HospitalID, o.Email, o.Name, o.Location, o.Phone,
		)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) && attempt < 3 {
			var exists bool
			if checkErr := conn(ctx, r.pool).QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM organization WHERE email = $1)`, o.Email).Scan(&exists); checkErr == nil && !exists {
				continue
			}
		}
		return mapPgErr(err)
	}
}

func (r *organizationRepoPG) GetByEmail(ctx context.Context, email string) (*Organization, error) {
	return scanOrganization(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+organizationCols+` FROM organization WHERE email = $1`, email))
}

func (r *organizationRepoPG) GetByHospitalID(ctx context.Context, hospitalID string) (*Organization, error) {
	return scanOrganization(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+organizationCols+` FROM organization WHERE hospital_id = $1`, hospitalID))
}

func (r *organizationRepoPG) Update(ctx context.Context, o *Organization) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE organization SET name=$2, location=$3, phone=$4, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.Name, o.Location, o.Phone,
	)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *organizationRepoPG) List(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM organization`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+organizationCols+` FROM organization ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var organizations []*Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		organizations = append(organizations, o)
	}
	return organizations, total, rows.Err()
}

// -- Loan Provider Repository --

type loanProviderRepoPG struct {
	pool *pgxpool.Pool
}

func NewLoanProviderRepo(pool *pgxpool.Pool) LoanProviderRepository {
	return &loanProviderRepoPG{pool: pool}
}

const loanProviderCols = `id, provider_id, email, name, phone, created_at, updated_at`

func scanLoanProvider(row pgx.Row) (*LoanProvider, error) {
	var p LoanProvider
	err := row.Scan(&p.ID, &p.ProviderID, &p.Email, &p.Name, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &p, nil
}

func (r *loanProviderRepoPG) Create(ctx context.Context, p *LoanProvider) error {
	p.ID = uuid.New()
	for attempt := 0; ; attempt++ {
		if p.ProviderID == "" || attempt > 0 {
			p.ProviderID = NewProviderID()
		}
		_, err := conn(ctx, r.pool).Exec(ctx, `
			INSERT INTO loan_provider (id, provider_id, email, name, phone)
			VALUES ($1,$2,$3,$4,$5)`,
			p.ID, p.ProviderID, p.Email, p.Name, p.Phone,
		)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) && attempt < 3 {
			var exists bool
			if checkErr := conn(ctx, r.pool).QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM loan_provider WHERE email = $1)`, p.Email).Scan(&exists); checkErr == nil && !exists {
				continue
			}
		}
		return mapPgErr(err)
	}
}

func (r *loanProviderRepoPG) GetByEmail(ctx context.Context, email string) (*LoanProvider, error) {
	return scanLoanProvider(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+loanProviderCols+` FROM loan_provider WHERE email = $1`, email))
}

func (r *loanProviderRepoPG) GetByProviderID(ctx context.Context, providerID string) (*LoanProvider, error) {
	return scanLoanProvider(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+loanProviderCols+` FROM loan_provider WHERE provider_id = $1`, providerID))
}

func (r *loanProviderRepoPG) Update(ctx context.Context, p *LoanProvider) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE loan_provider SET name=$2, phone=$3, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Phone,
	)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *loanProviderRepoPG) List(ctx context.Context, limit, offset int) ([]*LoanProvider, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM loan_provider`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+loanProviderCols+` FROM loan_provider ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var providers []*LoanProvider
	for rows.Next() {
		p, err := scanLoanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		providers = append(providers, p)
	}
	return providers, total, rows.Err()
}
