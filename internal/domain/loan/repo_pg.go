package loan

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

type loanRepoPG struct {
	pool *pgxpool.Pool
}

func NewLoanRepo(pool *pgxpool.Pool) LoanRepository {
	return &loanRepoPG{pool: pool}
}

func (r *loanRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const loanCols = `id, loan_id, applicant_id, patient_id, applicant_name, applicant_dob, provider_id,
	required_amount, approved_amount, monthly_income, existing_loans, insurance, insurance_coverage,
	preferred_tenure, risk, risk_score, status, loan_purpose, medical_reason, treatment_type,
	hospital_name, hospital_location, revised_amount, revised_tenure,
	decided_by, approved_at, rejected_at, version, created_at, updated_at`

func scanLoan(row pgx.Row) (*LoanRequest, error) {
	var l LoanRequest
	err := row.Scan(
		&l.ID, &l.LoanID, &l.ApplicantID, &l.PatientID, &l.ApplicantName, &l.ApplicantDOB, &l.ProviderID,
		&l.RequiredAmount, &l.ApprovedAmount, &l.MonthlyIncome, &l.ExistingLoans, &l.Insurance, &l.InsuranceCoverage,
		&l.PreferredTenure, &l.Risk, &l.RiskScore, &l.Status, &l.LoanPurpose, &l.MedicalReason, &l.TreatmentType,
		&l.HospitalName, &l.HospitalLocation, &l.RevisedAmount, &l.RevisedTenure,
		&l.DecidedBy, &l.ApprovedAt, &l.RejectedAt, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *loanRepoPG) Create(ctx context.Context, l *LoanRequest) error {
	l.ID = uuid.New()
	l.Version = 1
	for attempt := 0; ; attempt++ {
		if l.LoanID == "" || attempt > 0 {
			l.LoanID = NewLoanID()
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO loan_request (
				id, loan_id, applicant_id, patient_id, applicant_name, applicant_dob, provider_id,
				required_amount, approved_amount, monthly_income, existing_loans, insurance, insurance_coverage,
				preferred_tenure, risk, risk_score, status, loan_purpose, medical_reason, treatment_type,
				hospital_name, hospital_location, revised_amount, revised_tenure,
				decided_by, approved_at, rejected_at, version
			) VALUES (
				$1,$2,$3,$4,$5,$6,$7,
				$8,$9,$10,$11,$12,$13,
				$14,$15,$16,$17,$18,$19,$20,
				$21,$22,$23,$24,
				$25,$26,$27,$28
			)`,
			l.ID, l.LoanID, l.ApplicantID, l.PatientID, l.ApplicantName, l.ApplicantDOB, l.ProviderID,
			l.RequiredAmount, l.ApprovedAmount, l.MonthlyIncome, l.ExistingLoans, l.Insurance, l.InsuranceCoverage,
			l.PreferredTenure, l.Risk, l.RiskScore, l.Status, l.LoanPurpose, l.MedicalReason, l.TreatmentType,
			l.HospitalName, l.HospitalLocation, l.RevisedAmount, l.RevisedTenure,
			l.DecidedBy, l.ApprovedAt, l.RejectedAt, l.Version,
		)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) && attempt < 3 {
			continue
		}
		return err
	}
}

func (r *loanRepoPG) GetByLoanID(ctx context.Context, loanID string) (*LoanRequest, error) {
	return scanLoan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+loanCols+` FROM loan_request WHERE loan_id = $1`, loanID))
}

// Update writes all mutable fields guarded by the version column. Zero rows
// affected means a concurrent transition won; callers see ErrConflict.
func (r *loanRepoPG) Update(ctx context.Context, l *LoanRequest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE loan_request SET
			required_amount=$2, approved_amount=$3, preferred_tenure=$4, status=$5,
			revised_amount=$6, revised_tenure=$7, decided_by=$8, approved_at=$9, rejected_at=$10,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $11`,
		l.ID, l.RequiredAmount, l.ApprovedAmount, l.PreferredTenure, l.Status,
		l.RevisedAmount, l.RevisedTenure, l.DecidedBy, l.ApprovedAt, l.RejectedAt,
		l.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	l.Version++
	return nil
}

func (r *loanRepoPG) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*LoanRequest, int, error) {
	return r.list(ctx, `provider_id = $1`, providerID, limit, offset)
}

func (r *loanRepoPG) ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*LoanRequest, int, error) {
	return r.list(ctx, `applicant_id = $1`, applicantID, limit, offset)
}

func (r *loanRepoPG) list(ctx context.Context, where string, arg any, limit, offset int) ([]*LoanRequest, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM loan_request WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+loanCols+` FROM loan_request WHERE `+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var loans []*LoanRequest
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, 0, err
		}
		loans = append(loans, l)
	}
	return loans, total, rows.Err()
}

// -- aggregation primitives --

func (r *loanRepoPG) stringCounts(ctx context.Context, sql, providerID string) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[key] = count
	}
	return out, rows.Err()
}

func (r *loanRepoPG) StatusCounts(ctx context.Context, providerID string) (map[string]int, error) {
	return r.stringCounts(ctx, `
		SELECT status, COUNT(*) FROM loan_request
		WHERE provider_id = $1 GROUP BY status`, providerID)
}

func (r *loanRepoPG) TierCounts(ctx context.Context, providerID string) (map[string]int, error) {
	return r.stringCounts(ctx, `
		SELECT risk, COUNT(*) FROM loan_request
		WHERE provider_id = $1 GROUP BY risk`, providerID)
}

func (r *loanRepoPG) LocationCounts(ctx context.Context, providerID string) (map[string]int, error) {
	return r.stringCounts(ctx, `
		SELECT COALESCE(hospital_location, 'Unknown'), COUNT(*) FROM loan_request
		WHERE provider_id = $1 GROUP BY COALESCE(hospital_location, 'Unknown')`, providerID)
}

func (r *loanRepoPG) TierStatusCounts(ctx context.Context, providerID string) (map[string]map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT risk, status, COUNT(*) FROM loan_request
		WHERE provider_id = $1 GROUP BY risk, status`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var tier, status string
		var count int
		if err := rows.Scan(&tier, &status, &count); err != nil {
			return nil, err
		}
		if out[tier] == nil {
			out[tier] = make(map[string]int)
		}
		out[tier][status] = count
	}
	return out, rows.Err()
}

func (r *loanRepoPG) TenureCounts(ctx context.Context, providerID string) (map[int]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT preferred_tenure, COUNT(*) FROM loan_request
		WHERE provider_id = $1 GROUP BY preferred_tenure`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var tenure, count int
		if err := rows.Scan(&tenure, &count); err != nil {
			return nil, err
		}
		out[tenure] = count
	}
	return out, rows.Err()
}

// DailyCounts returns the earliest `days` distinct calendar days in ascending
// order, matching the upstream trend behavior.
func (r *loanRepoPG) DailyCounts(ctx context.Context, providerID string, days int) ([]DayCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT TO_CHAR(created_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM loan_request
		WHERE provider_id = $1
		GROUP BY created_at::date
		ORDER BY created_at::date ASC
		LIMIT $2`, providerID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *loanRepoPG) AgeBucketCounts(ctx context.Context, providerID string) (map[string]int, error) {
	return r.stringCounts(ctx, `
		SELECT CASE
			WHEN age BETWEEN 18 AND 30 THEN '18-30'
			WHEN age BETWEEN 31 AND 45 THEN '31-45'
			WHEN age BETWEEN 46 AND 60 THEN '46-60'
			ELSE '60+'
		END AS bucket, COUNT(*)
		FROM (
			SELECT DATE_PART('year', AGE(applicant_dob))::int AS age
			FROM loan_request
			WHERE provider_id = $1 AND applicant_dob IS NOT NULL
		) ages
		GROUP BY bucket`, providerID)
}
