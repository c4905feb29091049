// Package handler exposes the customer lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	jwttoken "github.com/DaghanEmre/fintech-modular-platform/internal/jwt_token"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/httputil"
	authmw "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/middleware/auth"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/requestcontext"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/specification"
)

// Service defines the customer use cases the handler drives.
type Service interface {
	CreateCustomer(ctx context.Context, email string) (*models.Customer, error)
	GetCustomer(ctx context.Context, id domain.CustomerID) (*models.Customer, error)
	ActivateCustomer(ctx context.Context, id domain.CustomerID) error
	SuspendCustomer(ctx context.Context, id domain.CustomerID, reason string) error
	BlockCustomer(ctx context.Context, id domain.CustomerID, reason string) error
	MarkCustomerInactive(ctx context.Context, id domain.CustomerID) error
	ChangeCustomerEmail(ctx context.Context, id domain.CustomerID, email string) error
	DeleteCustomer(ctx context.Context, id domain.CustomerID) error
}

// Handler handles customer lifecycle endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator authmw.JWTValidator
}

// New creates a customer Handler. Operator-only routes validate bearer tokens
// with jwtValidator.
func New(service Service, logger *slog.Logger, jwtValidator authmw.JWTValidator) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register registers the customer routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/customers", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/activate", h.handleActivate)
			r.Post("/email", h.handleChangeEmail)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth(h.jwtValidator, h.logger, jwttoken.RoleOperator))
				r.Post("/suspend", h.handleSuspend)
				r.Post("/block", h.handleBlock)
				r.Post("/deactivate", h.handleDeactivate)
				r.Delete("/", h.handleDelete)
			})
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCustomerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	customer, err := h.service.CreateCustomer(ctx, req.Email)
	if err != nil {
		h.writeError(ctx, w, "create", err)
		return
	}

	w.Header().Set("Location", "/api/v1/customers/"+customer.ID().String())
	httputil.WriteJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "activate", h.service.ActivateCustomer)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "deactivate", h.service.MarkCustomerInactive)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "delete", h.service.DeleteCustomer)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.handleReasonedTransition(w, r, "suspend", h.service.SuspendCustomer)
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	h.handleReasonedTransition(w, r, "block", h.service.BlockCustomer)
}

func (h *Handler) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChangeEmailRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.ChangeCustomerEmail(ctx, id, req.NewEmail); err != nil {
		h.writeError(ctx, w, "change_email", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context, domain.CustomerID) error) {
	ctx := r.Context()
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}
	if err := fn(ctx, id); err != nil {
		h.writeError(ctx, w, operation, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReasonedTransition(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context, domain.CustomerID, string) error) {
	ctx := r.Context()
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StateChangeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := fn(ctx, id, req.Reason); err != nil {
		h.writeError(ctx, w, operation, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) customerID(w http.ResponseWriter, r *http.Request) (domain.CustomerID, bool) {
	id, err := domain.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.CustomerID{}, false
	}
	return id, true
}

// writeError renders rule rejections with their violation and everything
// else through the domain error envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	if failure, ok := specification.AsFailure(err); ok {
		v := failure.Violation()
		httputil.WriteJSON(w, statusForViolation(v.Code()), RuleRejectionResponse{
			Error:            v.Code(),
			ErrorDescription: v.Message(),
			Context:          v.ContextMap(),
		})
		return
	}
	if code, ok := dErrors.CodeOf(err); !ok || code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "customer operation failed",
			"operation", operation,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
