package entries

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/platform/httpx"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

const maxAttachmentBytes = 10 << 20

type entryRequest struct {
	Direction      string `json:"direction" validate:"required,oneof=INCOME EXPENSE"`
	Description    string `json:"description" validate:"required,max=255"`
	Amount         string `json:"amount" validate:"required"`
	EntryDate      string `json:"entryDate" validate:"required"`
	DueDate        string `json:"dueDate"`
	Status         string `json:"status" validate:"required,max=30"`
	PaymentMethod  string `json:"paymentMethod" validate:"max=60"`
	Notes          string `json:"notes" validate:"max=1000"`
	CounterpartyID int64  `json:"counterpartyId" validate:"required,gt=0"`
}

// Handler exposes ledger entry CRUD and attachment upload over JSON.
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
	r.Post("/{id}/attachment", h.handleAttach)
	r.Delete("/{id}/attachment", h.handleDetach)
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

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func ledgerDirection(raw string) ledger.Direction {
	return ledger.Direction(strings.ToUpper(strings.TrimSpace(raw)))
}

func errInvalidQuery(param string) error {
	return fmt.Errorf("invalid query parameter %q", param)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, ownerID int64) (Input, bool) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid request body")
		return Input{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry payload")
		return Input{}, false
	}
	entryDate, err := parseDate(req.EntryDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "entryDate must be YYYY-MM-DD")
		return Input{}, false
	}
	in := Input{
		OwnerID:        ownerID,
		Direction:      req.Direction,
		Description:    req.Description,
		Amount:         req.Amount,
		EntryDate:      entryDate,
		Status:         req.Status,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		CounterpartyID: req.CounterpartyID,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "dueDate must be YYYY-MM-DD")
			return Input{}, false
		}
		in.DueDate = &due
	}
	return in, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	f, err := filterFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	items, err := h.service.List(r.Context(), ownerID, f)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": items})
}

func filterFromQuery(r *http.Request) (Filter, error) {
	var f Filter
	q := r.URL.Query()
	f.Direction = ledgerDirection(q.Get("direction"))
	f.Status = q.Get("status")
	if raw := q.Get("counterpartyId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Filter{}, errInvalidQuery("counterpartyId")
		}
		f.CounterpartyID = id
	}
	if raw := q.Get("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return Filter{}, errInvalidQuery("from")
		}
		f.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return Filter{}, errInvalidQuery("to")
		}
		f.To = t
	}
	return f, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	in, ok := h.decode(w, r, ownerID)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry id")
		return
	}
	item, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry id")
		return
	}
	in, ok := h.decode(w, r, ownerID)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), id, in)
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
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry id")
		return
	}
	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAttach(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry id")
		return
	}
	file, header, err := formFile(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "multipart field 'file' required")
		return
	}
	defer file.Close()

	updated, err := h.service.Attach(r.Context(), ownerID, id, io.LimitReader(file, maxAttachmentBytes), header.Filename)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		return nil, nil, err
	}
	return r.FormFile("file")
}

func (h *Handler) handleDetach(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry id")
		return
	}
	updated, err := h.service.Detach(r.Context(), ownerID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
