// Package api exposes the policy engine over HTTP. The surface is
// deliberately small: read and write organization policies, plus the usual
// health and metrics endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/orgguard/orgguard/pkg/domain"
	"github.com/orgguard/orgguard/pkg/policy"
	"github.com/orgguard/orgguard/pkg/policy/requirements"
	"github.com/orgguard/orgguard/pkg/storage"
)

// Server handles the policy HTTP API.
type Server struct {
	policies     storage.PolicyStore
	saver        *policy.SavePolicyCommand
	requirements *requirements.Query
	metrics      *Metrics
	logger       *slog.Logger
}

// NewServer creates a Server backed by the given store, save command, and
// requirement query.
func NewServer(policies storage.PolicyStore, saver *policy.SavePolicyCommand, query *requirements.Query, metrics *Metrics, logger *slog.Logger) *Server {
	return &Server{
		policies:     policies,
		saver:        saver,
		requirements: query,
		metrics:      metrics,
		logger:       logger,
	}
}

// Handler returns the fully wired HTTP handler: routes, request metrics, and
// tracing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/organizations/{orgID}/policies", s.handleListPolicies)
	mux.HandleFunc("GET /api/organizations/{orgID}/policies/{type}", s.handleGetPolicy)
	mux.HandleFunc("PUT /api/organizations/{orgID}/policies/{type}", s.handlePutPolicy)
	mux.HandleFunc("GET /api/users/{userID}/organizations/{orgID}/requirements", s.handleUserRequirements)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return otelhttp.NewHandler(s.metrics.Middleware(mux), "orgguard.api")
}

// putPolicyRequest is the PUT body. The policy type comes from the URL.
type putPolicyRequest struct {
	Enabled     bool            `json:"enabled"`
	Data        json.RawMessage `json:"data,omitempty"`
	PerformedBy *uuid.UUID      `json:"performed_by,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(r.PathValue("orgID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organization id.")
		return
	}

	policies, err := s.policies.GetManyByOrganizationID(r.Context(), orgID)
	if err != nil {
		s.internalError(w, r, "list policies", err)
		return
	}
	if policies == nil {
		policies = []*domain.Policy{}
	}
	writeJSON(w, http.StatusOK, policies)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	orgID, policyType, ok := s.pathIdentifiers(w, r)
	if !ok {
		return
	}

	p, err := s.policies.GetByOrganizationIDAndType(r.Context(), orgID, policyType)
	if err != nil {
		if errors.Is(err, domain.ErrPolicyNotFound) {
			writeError(w, http.StatusNotFound, "Policy not found.")
			return
		}
		s.internalError(w, r, "get policy", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutPolicy(w http.ResponseWriter, r *http.Request) {
	orgID, policyType, ok := s.pathIdentifiers(w, r)
	if !ok {
		return
	}

	var req putPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	saved, err := s.saver.Save(r.Context(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           policyType,
		Enabled:        req.Enabled,
		Data:           req.Data,
		PerformedBy:    req.PerformedBy,
	})
	if err != nil {
		var badRequest *domain.BadRequestError
		if errors.As(err, &badRequest) {
			s.metrics.RecordPolicyRejection(string(policyType))
			writeError(w, http.StatusBadRequest, badRequest.Message)
			return
		}
		s.internalError(w, r, "save policy", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) pathIdentifiers(w http.ResponseWriter, r *http.Request) (uuid.UUID, domain.PolicyType, bool) {
	orgID, err := uuid.Parse(r.PathValue("orgID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organization id.")
		return uuid.Nil, "", false
	}

	policyType := domain.PolicyType(r.PathValue("type"))
	if !policyType.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid policy type.")
		return uuid.Nil, "", false
	}
	return orgID, policyType, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	s.logger.Error("request failed", "operation", operation, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already written; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}
