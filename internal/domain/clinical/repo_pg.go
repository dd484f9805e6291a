package clinical

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

type bundleRepoPG struct {
	pool *pgxpool.Pool
}

func NewBundleRepo(pool *pgxpool.Pool) BundleRepository {
	return &bundleRepoPG{pool: pool}
}

func (r *bundleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const bundleCols = `id, shared_profile_id, applicant_id, subject_id, resource, created_at`

func scanBundle(row pgx.Row) (*StoredBundle, error) {
	var b StoredBundle
	err := row.Scan(&b.ID, &b.SharedProfileID, &b.ApplicantID, &b.SubjectID, &b.Resource, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bundleRepoPG) Create(ctx context.Context, b *StoredBundle) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO fhir_bundle (id, shared_profile_id, applicant_id, subject_id, resource)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.SharedProfileID, b.ApplicantID, b.SubjectID, b.Resource,
	)
	return err
}

func (r *bundleRepoPG) GetBySharedProfileID(ctx context.Context, sharedProfileID uuid.UUID) (*StoredBundle, error) {
	return scanBundle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bundleCols+` FROM fhir_bundle WHERE shared_profile_id = $1`, sharedProfileID))
}

func (r *bundleRepoPG) DeleteBySharedProfileID(ctx context.Context, sharedProfileID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM fhir_bundle WHERE shared_profile_id = $1`, sharedProfileID)
	return err
}

func (r *bundleRepoPG) ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*StoredBundle, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM fhir_bundle WHERE applicant_id = $1`, applicantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+bundleCols+` FROM fhir_bundle WHERE applicant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		applicantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bundles []*StoredBundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, 0, err
		}
		bundles = append(bundles, b)
	}
	return bundles, total, rows.Err()
}
