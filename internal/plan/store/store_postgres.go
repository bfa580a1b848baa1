package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"testament/internal/plan/models"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/platform/sentinel"
)

// Schema creates the plan table. Plans are stored as one JSONB document
// per row: mutations rewrite the whole document in a single UPDATE, which
// is what makes the clone-modify-write commit atomic at the SQL level.
const Schema = `
CREATE TABLE IF NOT EXISTS inheritance_plans (
	id         UUID PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS inheritance_plans_owner_idx ON inheritance_plans (owner_id);
`

// Postgres persists plans in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the plan schema. Intended for dev wiring and
// integration tests; production deployments run migrations out of band.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure plan schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, plan *models.InheritancePlan) error {
	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inheritance_plans (id, owner_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, plan.ID.String(), plan.Owner.String(), doc, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, planID domain.PlanID) (*models.InheritancePlan, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM inheritance_plans WHERE id = $1`,
		planID.String(),
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return unmarshalPlan(doc)
}

func (s *Postgres) ListByOwner(ctx context.Context, owner domain.AccountID) ([]*models.InheritancePlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM inheritance_plans WHERE owner_id = $1 ORDER BY created_at`,
		owner.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.InheritancePlan
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plan, err := unmarshalPlan(doc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

// Execute runs validate and mutate against the current document inside a
// transaction holding a row lock, then commits the rewritten document with
// one UPDATE. A failed callback or ledger audit rolls back with no write.
func (s *Postgres) Execute(ctx context.Context, planID domain.PlanID,
	validate func(plan *models.InheritancePlan) error,
	mutate func(plan *models.InheritancePlan)) (*models.InheritancePlan, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var doc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT document FROM inheritance_plans WHERE id = $1 FOR UPDATE`,
		planID.String(),
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock plan: %w", err)
	}

	plan, err := unmarshalPlan(doc)
	if err != nil {
		return nil, err
	}

	if err := validate(plan); err != nil {
		return nil, err
	}
	mutate(plan)
	if err := plan.CheckAllocations(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "refusing to commit inconsistent plan")
	}

	next, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE inheritance_plans SET document = $2, updated_at = $3 WHERE id = $1
	`, planID.String(), next, plan.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit plan tx: %w", err)
	}
	return plan, nil
}

func unmarshalPlan(doc []byte) (*models.InheritancePlan, error) {
	var plan models.InheritancePlan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan document: %w", err)
	}
	return &plan, nil
}
