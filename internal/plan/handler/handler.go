// Package handler exposes the plan registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"testament/internal/authz"
	"testament/internal/plan/models"
	"testament/internal/plan/service"
	"testament/internal/platform/metrics"
	"testament/internal/platform/middleware"
	"testament/internal/transport/http/shared"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// Service defines the registry operations the handler delegates to.
type Service interface {
	CreatePlan(ctx context.Context, proof authz.Proof, in service.CreatePlanInput) (*models.InheritancePlan, error)
	GetPlan(ctx context.Context, proof authz.Proof, planID domain.PlanID) (*models.InheritancePlan, error)
	ListPlans(ctx context.Context, proof authz.Proof) ([]*models.InheritancePlan, error)
	AddBeneficiary(ctx context.Context, proof authz.Proof, planID domain.PlanID, in service.AddBeneficiaryInput) error
	RemoveBeneficiary(ctx context.Context, proof authz.Proof, planID domain.PlanID, index int) error
}

// Handler handles plan and beneficiary endpoints.
type Handler struct {
	logger   *slog.Logger
	registry Service
	metrics  *metrics.Metrics
}

// New creates a plan Handler. metrics may be nil.
func New(registry Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		metrics:  m,
	}
}

// Register mounts the plan routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	planRouter := chi.NewRouter()
	planRouter.Use(middleware.Recovery(h.logger))
	planRouter.Use(middleware.RequestID)
	planRouter.Use(middleware.Logger(h.logger))
	planRouter.Use(middleware.Timeout(30 * time.Second))
	planRouter.Use(middleware.ContentTypeJSON)
	planRouter.Use(middleware.Latency(h.metrics))
	planRouter.Post("/plans", h.handleCreatePlan)
	planRouter.Get("/plans", h.handleListPlans)
	planRouter.Get("/plans/{planID}", h.handleGetPlan)
	planRouter.Post("/plans/{planID}/beneficiaries", h.handleAddBeneficiary)
	planRouter.Delete("/plans/{planID}/beneficiaries/{index}", h.handleRemoveBeneficiary)

	r.Mount("/", planRouter)
}

// proofFromRequest extracts the bearer credential. Verification happens in
// the service so the transport stays policy-free.
func proofFromRequest(r *http.Request) authz.Proof {
	header := r.Header.Get("Authorization")
	token, _ := strings.CutPrefix(header, "Bearer ")
	return authz.Proof{Token: token}
}

func planIDFromRequest(r *http.Request) (domain.PlanID, error) {
	raw := chi.URLParam(r, "planID")
	planID, err := domain.ParsePlanID(raw)
	if err != nil {
		return domain.PlanID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid plan id")
	}
	return planID, nil
}

type createPlanRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	AssetType          string `json:"asset_type"`
	TotalAmount        string `json:"total_amount"`
	DistributionMethod string `json:"distribution_method"`
}

type addBeneficiaryRequest struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	ClaimCode    int    `json:"claim_code"`
	AllocationBP int    `json:"allocation_bp"`
	BankAccount  string `json:"bank_account"`
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	plan, err := h.registry.CreatePlan(ctx, proofFromRequest(r), service.CreatePlanInput{
		Name:               req.Name,
		Description:        req.Description,
		AssetType:          req.AssetType,
		TotalAmount:        req.TotalAmount,
		DistributionMethod: req.DistributionMethod,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create plan rejected", "error", err.Error())
		shared.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.registry.ListPlans(r.Context(), proofFromRequest(r))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if plans == nil {
		plans = []*models.InheritancePlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := planIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	plan, err := h.registry.GetPlan(r.Context(), proofFromRequest(r), planID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleAddBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	planID, err := planIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req addBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	err = h.registry.AddBeneficiary(ctx, proofFromRequest(r), planID, service.AddBeneficiaryInput{
		FullName:     req.FullName,
		Email:        req.Email,
		ClaimCode:    req.ClaimCode,
		AllocationBP: req.AllocationBP,
		BankAccount:  []byte(req.BankAccount),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add beneficiary rejected",
			"plan_id", planID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	planID, err := planIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid beneficiary index"))
		return
	}

	if err := h.registry.RemoveBeneficiary(ctx, proofFromRequest(r), planID, index); err != nil {
		h.logger.WarnContext(ctx, "remove beneficiary rejected",
			"plan_id", planID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
