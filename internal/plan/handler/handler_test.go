package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"testament/internal/authz/authztest"
	"testament/internal/plan/service"
	"testament/internal/plan/store"
)

type PlanHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestPlanHandlerSuite(t *testing.T) {
	suite.Run(t, new(PlanHandlerSuite))
}

func (s *PlanHandlerSuite) SetupTest() {
	registry := service.New(store.NewInMemory(), authztest.Exact{})
	handler := New(registry, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	s.router = chi.NewRouter()
	handler.Register(s.router)
}

func (s *PlanHandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *PlanHandlerSuite) createPlan(token string) string {
	w := s.do(http.MethodPost, "/plans", token, map[string]string{"name": "Estate"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var resp struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func validBeneficiary(email string, allocationBP int) map[string]any {
	return map[string]any{
		"full_name":     "Jordan Doe",
		"email":         email,
		"claim_code":    123456,
		"allocation_bp": allocationBP,
		"bank_account":  "DE89370400440532013000",
	}
}

func (s *PlanHandlerSuite) TestCreateAndGetPlan() {
	planID := s.createPlan("owner-1")

	w := s.do(http.MethodGet, "/plans/"+planID, "owner-1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var plan struct {
		ID                string `json:"id"`
		Owner             string `json:"owner"`
		TotalAllocationBP int    `json:"total_allocation_bp"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &plan))
	s.Equal(planID, plan.ID)
	s.Equal("owner-1", plan.Owner)
	s.Zero(plan.TotalAllocationBP)
}

func (s *PlanHandlerSuite) TestAddBeneficiary() {
	planID := s.createPlan("owner-1")

	w := s.do(http.MethodPost, "/plans/"+planID+"/beneficiaries", "owner-1", validBeneficiary("a@example.com", 5000))
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/plans/"+planID, "owner-1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var plan struct {
		Beneficiaries     []map[string]any `json:"beneficiaries"`
		TotalAllocationBP int              `json:"total_allocation_bp"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &plan))
	s.Len(plan.Beneficiaries, 1)
	s.Equal(5000, plan.TotalAllocationBP)
}

func (s *PlanHandlerSuite) TestErrorMapping() {
	planID := s.createPlan("owner-1")
	s.Require().Equal(http.StatusNoContent,
		s.do(http.MethodPost, "/plans/"+planID+"/beneficiaries", "owner-1", validBeneficiary("a@example.com", 5000)).Code)

	cases := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name: "missing token", method: http.MethodPost,
			path: "/plans/" + planID + "/beneficiaries", token: "",
			body:       validBeneficiary("b@example.com", 100),
			wantStatus: http.StatusUnauthorized, wantError: "unauthorized",
		},
		{
			name: "wrong owner", method: http.MethodPost,
			path: "/plans/" + planID + "/beneficiaries", token: "intruder",
			body:       validBeneficiary("b@example.com", 100),
			wantStatus: http.StatusUnauthorized, wantError: "unauthorized",
		},
		{
			name: "unknown plan", method: http.MethodPost,
			path: "/plans/0e47cbf6-6f0a-44ed-8d8d-93d71bbb393f/beneficiaries", token: "owner-1",
			body:       validBeneficiary("b@example.com", 100),
			wantStatus: http.StatusNotFound, wantError: "plan_not_found",
		},
		{
			name: "malformed plan id", method: http.MethodGet,
			path: "/plans/not-a-uuid", token: "owner-1",
			wantStatus: http.StatusBadRequest, wantError: "invalid_input",
		},
		{
			name: "allocation over ceiling", method: http.MethodPost,
			path: "/plans/" + planID + "/beneficiaries", token: "owner-1",
			body:       validBeneficiary("b@example.com", 6000),
			wantStatus: http.StatusBadRequest, wantError: "allocation_exceeds_limit",
		},
		{
			name: "claim code out of range", method: http.MethodPost,
			path: "/plans/" + planID + "/beneficiaries", token: "owner-1",
			body: map[string]any{
				"full_name": "Jordan Doe", "email": "b@example.com",
				"claim_code": 1000000, "allocation_bp": 100, "bank_account": "DE89",
			},
			wantStatus: http.StatusBadRequest, wantError: "invalid_claim_code_range",
		},
		{
			name: "remove out of range index", method: http.MethodDelete,
			path: "/plans/" + planID + "/beneficiaries/5", token: "owner-1",
			wantStatus: http.StatusBadRequest, wantError: "invalid_beneficiary_index",
		},
		{
			name: "remove non-numeric index", method: http.MethodDelete,
			path: "/plans/" + planID + "/beneficiaries/first", token: "owner-1",
			wantStatus: http.StatusBadRequest, wantError: "invalid_input",
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.do(tc.method, tc.path, tc.token, tc.body)
			s.Equal(tc.wantStatus, w.Code)
			var resp struct {
				Error string `json:"error"`
			}
			s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			s.Equal(tc.wantError, resp.Error)
		})
	}
}

func (s *PlanHandlerSuite) TestRemoveBeneficiary() {
	planID := s.createPlan("owner-1")
	for i, bp := range []int{2000, 3000, 1000} {
		email := fmt.Sprintf("heir-%d@example.com", i)
		s.Require().Equal(http.StatusNoContent,
			s.do(http.MethodPost, "/plans/"+planID+"/beneficiaries", "owner-1", validBeneficiary(email, bp)).Code)
	}

	w := s.do(http.MethodDelete, "/plans/"+planID+"/beneficiaries/0", "owner-1", nil)
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/plans/"+planID, "owner-1", nil)
	var plan struct {
		Beneficiaries     []map[string]any `json:"beneficiaries"`
		TotalAllocationBP int              `json:"total_allocation_bp"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &plan))
	s.Len(plan.Beneficiaries, 2)
	s.Equal(4000, plan.TotalAllocationBP)
}

func (s *PlanHandlerSuite) TestListPlans() {
	s.createPlan("owner-1")
	s.createPlan("owner-1")
	s.createPlan("owner-2")

	w := s.do(http.MethodGet, "/plans", "owner-1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var plans []map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &plans))
	s.Len(plans, 2)

	w = s.do(http.MethodGet, "/plans", "nobody", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &plans))
	s.Empty(plans)
}
