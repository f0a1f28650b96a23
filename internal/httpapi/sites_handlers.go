package httpapi

import (
	"net/http"

	"device-registry/internal/domain"
)

// SitesHandler 处理 /sites（列表、创建）
func (a *API) SitesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		results, err := a.registry.ListSites(r.Context(), criteriaFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodPost:
		var req domain.SiteCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		site, err := a.registry.CreateSite(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, site)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SiteByTokenHandler 处理 /sites/{token} 及其子资源
func (a *API) SiteByTokenHandler(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, apiPrefix+"/sites")
	if len(parts) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token := parts[0]

	if len(parts) == 1 {
		a.siteResource(w, r, token)
		return
	}
	switch parts[1] {
	case "zones":
		a.siteZones(w, r, token)
	case "assignments":
		a.siteAssignments(w, r, token)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *API) siteResource(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		site, err := a.registry.GetSiteByToken(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if site == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidSiteToken), Message: "site not found"})
			return
		}
		writeJSON(w, http.StatusOK, site)
	case http.MethodPut:
		var req domain.SiteCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		site, err := a.registry.UpdateSite(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, site)
	case http.MethodDelete:
		force := parseBool(r.URL.Query().Get("force"), false)
		site, err := a.registry.DeleteSite(r.Context(), token, force)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, site)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) siteZones(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		results, err := a.registry.ListZones(r.Context(), token, criteriaFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodPost:
		var req domain.ZoneCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		zone, err := a.registry.CreateZone(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, zone)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) siteAssignments(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	criteria := domain.AssignmentSearchCriteria{
		SearchCriteria: criteriaFromQuery(r),
		Status:         domain.AssignmentStatus(r.URL.Query().Get("status")),
	}
	results, err := a.registry.GetDeviceAssignmentsForSite(r.Context(), token, criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ZoneByTokenHandler 处理 /zones/{token}
func (a *API) ZoneByTokenHandler(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, apiPrefix+"/zones")
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token := parts[0]

	switch r.Method {
	case http.MethodGet:
		zone, err := a.registry.GetZone(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if zone == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidZoneToken), Message: "zone not found"})
			return
		}
		writeJSON(w, http.StatusOK, zone)
	case http.MethodPut:
		var req domain.ZoneCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		zone, err := a.registry.UpdateZone(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, zone)
	case http.MethodDelete:
		force := parseBool(r.URL.Query().Get("force"), false)
		zone, err := a.registry.DeleteZone(r.Context(), token, force)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, zone)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
