package httpapi

import (
	"net/http"

	"device-registry/internal/domain"
)

// GroupsHandler 处理 /groups（列表、创建）
func (a *API) GroupsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		includeDeleted := parseBool(q.Get("includeDeleted"), false)
		criteria := criteriaFromQuery(r)
		if role := q.Get("role"); role != "" {
			results, err := a.registry.ListDeviceGroupsWithRole(r.Context(), role, includeDeleted, criteria)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, results)
			return
		}
		results, err := a.registry.ListDeviceGroups(r.Context(), includeDeleted, criteria)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodPost:
		var req domain.DeviceGroupCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		group, err := a.registry.CreateDeviceGroup(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, group)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// GroupByTokenHandler 处理 /groups/{token} 及其元素
func (a *API) GroupByTokenHandler(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, apiPrefix+"/groups")
	if len(parts) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token := parts[0]

	if len(parts) == 1 {
		a.groupResource(w, r, token)
		return
	}
	if parts[1] == "elements" {
		a.groupElements(w, r, token)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (a *API) groupResource(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		group, err := a.registry.GetDeviceGroup(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if group == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidGroupToken), Message: "device group not found"})
			return
		}
		writeJSON(w, http.StatusOK, group)
	case http.MethodPut:
		var req domain.DeviceGroupCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		group, err := a.registry.UpdateDeviceGroup(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	case http.MethodDelete:
		force := parseBool(r.URL.Query().Get("force"), false)
		group, err := a.registry.DeleteDeviceGroup(r.Context(), token, force)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) groupElements(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		results, err := a.registry.ListDeviceGroupElements(r.Context(), token, criteriaFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodPost:
		var reqs []domain.DeviceGroupElementCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &reqs); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		ignoreDuplicates := parseBool(r.URL.Query().Get("ignoreDuplicates"), false)
		added, err := a.registry.AddDeviceGroupElements(r.Context(), token, reqs, ignoreDuplicates)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, added)
	case http.MethodDelete:
		var reqs []domain.DeviceGroupElementCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &reqs); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		removed, err := a.registry.RemoveDeviceGroupElements(r.Context(), token, reqs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, removed)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
