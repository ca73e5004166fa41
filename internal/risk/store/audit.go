package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

// Decision kinds recorded in the audit table.
const (
	DecisionPrediction  = "prediction"
	DecisionExplanation = "explanation"
)

var auditColumns = []string{
	"request_id", "kind", "source", "features", "score", "capability",
	"shape", "base_value", "attributions", "created_at",
}

// AuditRepository appends every decision to a Postgres table.
type AuditRepository struct {
	db    *sql.DB
	table string
	psql  sq.StatementBuilderType
}

func NewAuditRepository(db *sql.DB, table string) *AuditRepository {
	return &AuditRepository{
		db:    db,
		table: table,
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AuditRepository) Name() string { return "audit" }

// EnsureSchema creates the audit table if it does not exist.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		request_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		features JSONB NOT NULL,
		score DOUBLE PRECISION,
		capability TEXT,
		shape TEXT,
		base_value DOUBLE PRECISION,
		attributions JSONB,
		created_at TIMESTAMPTZ NOT NULL
	)`, pq.QuoteIdentifier(r.table))

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

func (r *AuditRepository) OnPrediction(ctx context.Context, rec models.PredictionRecord) error {
	features, err := json.Marshal(rec.Features.Slice())
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeAuditWriteFailed, err)
	}

	return r.insert(ctx,
		rec.RequestID, DecisionPrediction, rec.Source, string(features),
		rec.Score, string(rec.Capability), nil, nil, nil, rec.CreatedAt,
	)
}

func (r *AuditRepository) OnExplanation(ctx context.Context, rec models.ExplanationRecord) error {
	features, err := json.Marshal(rec.Attribution.FeatureValues)
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeAuditWriteFailed, err)
	}
	attributions, err := json.Marshal(rec.Attribution.Values)
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeAuditWriteFailed, err)
	}

	return r.insert(ctx,
		rec.RequestID, DecisionExplanation, rec.Source, string(features),
		nil, nil, rec.Shape, rec.Attribution.BaseValue, string(attributions), rec.CreatedAt,
	)
}

// CountByKind returns how many decisions of kind were recorded.
func (r *AuditRepository) CountByKind(ctx context.Context, kind string) (int, error) {
	query, args, err := r.psql.Select("COUNT(*)").From(pq.QuoteIdentifier(r.table)).Where(sq.Eq{"kind": kind}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}

func (r *AuditRepository) insert(ctx context.Context, values ...interface{}) error {
	query, args, err := r.psql.Insert(pq.QuoteIdentifier(r.table)).Columns(auditColumns...).Values(values...).ToSql()
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeAuditWriteFailed, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.NewSinkError(errors.ErrCodeAuditWriteFailed, err)
	}
	return nil
}
