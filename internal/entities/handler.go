package entities

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caixaclaro/caixaclaro/internal/platform/httpx"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

type counterpartyRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	DocumentType string `json:"documentType" validate:"required,oneof=CPF CNPJ"`
	Document     string `json:"document" validate:"required,max=20"`
	TradeName    string `json:"tradeName" validate:"max=120"`
	Phone        string `json:"phone" validate:"max=30"`
	Email        string `json:"email" validate:"omitempty,email"`
}

// Handler exposes counterparty CRUD over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ownerID, ok := shared.OwnerFromContext(r.Context())
	if !ok || ownerID <= 0 {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return 0, false
	}
	return ownerID, true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), ownerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"counterparties": items})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid counterparty id")
		return
	}
	item, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (counterpartyRequest, bool) {
	var req counterpartyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid counterparty payload")
		return req, false
	}
	return req, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), CreateInput{
		OwnerID:      ownerID,
		Name:         req.Name,
		DocumentType: req.DocumentType,
		Document:     req.Document,
		TradeName:    req.TradeName,
		Phone:        req.Phone,
		Email:        req.Email,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid counterparty id")
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), id, CreateInput{
		OwnerID:      ownerID,
		Name:         req.Name,
		DocumentType: req.DocumentType,
		Document:     req.Document,
		TradeName:    req.TradeName,
		Phone:        req.Phone,
		Email:        req.Email,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid counterparty id")
		return
	}
	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
