package user

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/transport"
)

type ServiceAPI interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error)
	UpdateUser(ctx context.Context, id string, dto UpdateUserDTO) (*User, error)
	DeleteUser(ctx context.Context, id string) (*DeleteOutcome, error)
	LinkPermissions(ctx context.Context, userID string, dto LinkPermissionsDTO) ([]permission.Grant, error)
	PermissionSummary(ctx context.Context, userID string) (*PermissionSummary, error)
	Stats(ctx context.Context) (*Stats, error)
	Export(ctx context.Context, opts ExportOptions) (*ExportResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search:     r.URL.Query().Get("search"),
		GroupID:    r.URL.Query().Get("group_id"),
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}

	users, err := h.Service.ListUsers(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.CreateUser(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.UpdateUser(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// Delete removes the account or, when it still owns records, deactivates it.
// The outcome in the response says which of the two happened.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.Service.DeleteUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) LinkPermissions(w http.ResponseWriter, r *http.Request) {
	var dto LinkPermissionsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	grants, err := h.Service.LinkPermissions(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"permissions": grants,
		"total":       len(grants),
	})
}

func (h *Handler) PermissionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.PermissionSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	opts := ExportOptions{
		IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
	}

	result, err := h.Service.Export(r.Context(), opts)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.writeCSV(w, result)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeCSV(w http.ResponseWriter, result *ExportResult) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=users-%s.csv", result.GeneratedAt.Format("2006-01-02")))

	cw := csv.NewWriter(w)
	cw.Write([]string{"email", "name", "group", "is_active", "overrides"})

	for _, u := range result.Users {
		groupName := ""
		if u.GroupName != nil {
			groupName = *u.GroupName
		}
		cw.Write([]string{
			u.Email,
			u.Name,
			groupName,
			strconv.FormatBool(u.IsActive),
			strings.Join(u.Overrides, ";"),
		})
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Logger.Error("failed to write CSV export", "error", err)
	}
}
