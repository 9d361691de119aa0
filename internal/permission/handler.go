package permission

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/msallam/hotel-management/internal/transport"
)

type ServiceAPI interface {
	ListPermissions(ctx context.Context, filter ListFilter) ([]*Permission, error)
	GetPermission(ctx context.Context, id string) (*Permission, error)
	CreatePermission(ctx context.Context, dto CreatePermissionDTO) (*Permission, error)
	UpdatePermission(ctx context.Context, id string, dto UpdatePermissionDTO) (*Permission, error)
	DeletePermission(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, dto BulkCreateDTO) (int64, error)
	BulkDelete(ctx context.Context, dto BulkDeleteDTO) (int64, error)
	Import(ctx context.Context, dto ImportPermissionsDTO) (*ImportResult, error)
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
		Module: r.URL.Query().Get("module"),
		Action: r.URL.Query().Get("action"),
		Search: r.URL.Query().Get("search"),
	}

	perms, err := h.Service.ListPermissions(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"permissions": perms,
		"total":       len(perms),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetPermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.CreatePermission(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.UpdatePermission(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePermission(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var dto BulkCreateDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.BulkCreate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]int64{"created": created})
}

func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var dto BulkDeleteDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	deleted, err := h.Service.BulkDelete(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var dto ImportPermissionsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Import(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// Export serves the permission catalog as JSON or, with format=csv, as a CSV
// download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	opts := ExportOptions{
		Module:       r.URL.Query().Get("module"),
		IncludeUsage: r.URL.Query().Get("include_usage") == "true",
	}

	result, err := h.Service.Export(r.Context(), opts)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.writeCSV(w, result, opts.IncludeUsage)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeCSV(w http.ResponseWriter, result *ExportResult, includeUsage bool) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=permissions-%s.csv", result.GeneratedAt.Format("2006-01-02")))

	cw := csv.NewWriter(w)
	header := []string{"module", "action", "description"}
	if includeUsage {
		header = append(header, "group_count", "user_count")
	}
	cw.Write(header)

	for _, p := range result.Permissions {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		row := []string{p.Module, p.Action, desc}
		if includeUsage {
			var gc, uc int64
			if p.GroupCount != nil {
				gc = *p.GroupCount
			}
			if p.UserCount != nil {
				uc = *p.UserCount
			}
			row = append(row, strconv.FormatInt(gc, 10), strconv.FormatInt(uc, 10))
		}
		cw.Write(row)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Logger.Error("failed to write CSV export", "error", err)
	}
}
