package group

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
	ListGroups(ctx context.Context, filter ListFilter) ([]*Group, error)
	GetGroup(ctx context.Context, id string) (*GroupWithPermissions, error)
	CreateGroup(ctx context.Context, dto CreateGroupDTO) (*Group, error)
	UpdateGroup(ctx context.Context, id string, dto UpdateGroupDTO) (*Group, error)
	DeleteGroup(ctx context.Context, id string) error
	LinkPermissions(ctx context.Context, groupID string, dto LinkPermissionsDTO) ([]permission.Grant, error)
	Import(ctx context.Context, dto ImportGroupsDTO) (*ImportResult, error)
	Export(ctx context.Context, opts ExportOptions) (*ExportResult, error)
	Stats(ctx context.Context) (*Stats, error)
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
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}

	groups, err := h.Service.ListGroups(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"total":  len(groups),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.Service.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateGroupDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	g, err := h.Service.CreateGroup(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateGroupDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	g, err := h.Service.UpdateGroup(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkPermissions handles the bulk add/remove/replace of a group's grants.
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

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var dto ImportGroupsDTO
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

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeCSV(w http.ResponseWriter, result *ExportResult) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=groups-%s.csv", result.GeneratedAt.Format("2006-01-02")))

	cw := csv.NewWriter(w)
	cw.Write([]string{"name", "description", "is_active", "user_count", "permissions"})

	for _, g := range result.Groups {
		desc := ""
		if g.Description != nil {
			desc = *g.Description
		}
		cw.Write([]string{
			g.Name,
			desc,
			strconv.FormatBool(g.IsActive),
			strconv.FormatInt(g.UserCount, 10),
			strings.Join(g.Permissions, ";"),
		})
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Logger.Error("failed to write CSV export", "error", err)
	}
}
