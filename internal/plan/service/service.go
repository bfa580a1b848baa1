// Package service implements the beneficiary registry: every mutation of a
// plan's beneficiary set flows through here.
//
// Each call runs as one atomic unit: the owner gate first, then validation
// against the current ledger, then a single clone-modify-write commit
// through the store's Execute boundary. Events and the claim index are
// touched only after the commit, so a failed call is observationally
// silent. The store serializes mutations per plan; the service holds no
// locks of its own.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks PlanStore,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"

	"testament/internal/audit"
	"testament/internal/authz"
	"testament/internal/claimindex"
	planmetrics "testament/internal/plan/metrics"
	"testament/internal/plan/models"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/platform/sentinel"
	"testament/pkg/requestcontext"
)

// PlanStore is the persistence surface the registry needs.
type PlanStore interface {
	Create(ctx context.Context, plan *models.InheritancePlan) error
	FindByID(ctx context.Context, planID domain.PlanID) (*models.InheritancePlan, error)
	ListByOwner(ctx context.Context, owner domain.AccountID) ([]*models.InheritancePlan, error)
	Execute(ctx context.Context, planID domain.PlanID,
		validate func(plan *models.InheritancePlan) error,
		mutate func(plan *models.InheritancePlan)) (*models.InheritancePlan, error)
}

// AuditPublisher records an event after a successful mutation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Registry orchestrates beneficiary management for inheritance plans.
type Registry struct {
	plans    PlanStore
	verifier authz.OwnerVerifier
	resolver authz.IdentityResolver
	logger   *slog.Logger
	audit    AuditPublisher
	claims   claimindex.Index
	metrics  *planmetrics.Metrics
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(r *Registry) { r.audit = publisher }
}

func WithClaimIndex(index claimindex.Index) Option {
	return func(r *Registry) { r.claims = index }
}

func WithMetrics(m *planmetrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithIdentityResolver supplies the resolver used by flows that establish
// ownership (plan creation, owner-scoped listings). Defaults to the
// verifier when it also resolves identities.
func WithIdentityResolver(resolver authz.IdentityResolver) Option {
	return func(r *Registry) { r.resolver = resolver }
}

// New constructs a Registry.
func New(plans PlanStore, verifier authz.OwnerVerifier, opts ...Option) *Registry {
	r := &Registry{
		plans:    plans,
		verifier: verifier,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		if resolver, ok := verifier.(authz.IdentityResolver); ok {
			r.resolver = resolver
		}
	}
	return r
}

func (r *Registry) resolveIdentity(ctx context.Context, proof authz.Proof) (domain.AccountID, error) {
	if r.resolver == nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "no identity resolver configured")
	}
	return r.resolver.Resolve(ctx, proof)
}

// wrapPlanErr translates store sentinels into domain errors.
func wrapPlanErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(domain.CodePlanNotFound, "plan not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "plan store failure")
}

func (r *Registry) logAudit(ctx context.Context, event audit.Event) {
	r.logger.InfoContext(ctx, string(event.Topic)+"."+event.Action,
		"plan_id", event.PlanID.String(),
		"allocation_bp", event.AllocationBP,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if r.audit == nil {
		return
	}
	// Fire-and-forget: the mutation has already committed, so a sink
	// failure is logged rather than surfaced to the caller.
	if err := r.audit.Emit(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err, "plan_id", event.PlanID.String())
	}
}
