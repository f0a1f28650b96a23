package httpapi

import (
	"net/http"

	"device-registry/internal/domain"
	"device-registry/internal/marshaling"
)

func assignmentMarshalOptionsFromQuery(r *http.Request) marshaling.AssignmentMarshalOptions {
	q := r.URL.Query()
	opts := marshaling.DefaultAssignmentMarshalOptions()
	opts.IncludeAsset = parseBool(q.Get("includeAsset"), true)
	opts.IncludeDevice = parseBool(q.Get("includeDevice"), false)
	opts.IncludeSite = parseBool(q.Get("includeSite"), false)
	return opts
}

// AssignmentsHandler 处理 /assignments（创建）
func (a *API) AssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req domain.DeviceAssignmentCreateRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
		return
	}
	assignment, err := a.registry.CreateDeviceAssignment(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// AssignmentByTokenHandler 处理 /assignments/{token} 及其子资源
func (a *API) AssignmentByTokenHandler(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, apiPrefix+"/assignments")
	if len(parts) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token := parts[0]

	if len(parts) == 1 {
		a.assignmentResource(w, r, token)
		return
	}
	switch parts[1] {
	case "end":
		a.assignmentEnd(w, r, token)
	case "metadata":
		a.assignmentMetadata(w, r, token)
	case "status":
		a.assignmentStatus(w, r, token)
	case "streams":
		if len(parts) == 3 {
			a.assignmentStream(w, r, token, parts[2])
			return
		}
		a.assignmentStreams(w, r, token)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *API) assignmentResource(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		assignment, err := a.registry.GetDeviceAssignmentByToken(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if assignment == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidAssignmentToken), Message: "assignment not found"})
			return
		}
		marshaled, err := a.assignments.MarshalAssignment(r.Context(), assignment, assignmentMarshalOptionsFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, marshaled)
	case http.MethodDelete:
		force := parseBool(r.URL.Query().Get("force"), false)
		assignment, err := a.registry.DeleteDeviceAssignment(r.Context(), token, force)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, assignment)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) assignmentEnd(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	assignment, err := a.registry.EndDeviceAssignment(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (a *API) assignmentMetadata(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var metadata map[string]string
	if err := readBodyJSON(r, maxBodyBytes, &metadata); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
		return
	}
	assignment, err := a.registry.UpdateDeviceAssignmentMetadata(r.Context(), token, metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (a *API) assignmentStatus(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Status domain.AssignmentStatus `json:"status"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil || body.Status == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "status is required"})
		return
	}
	assignment, err := a.registry.UpdateDeviceAssignmentStatus(r.Context(), token, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (a *API) assignmentStreams(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		results, err := a.registry.ListDeviceStreams(r.Context(), token, criteriaFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodPost:
		var req domain.DeviceStreamCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		stream, err := a.registry.CreateDeviceStream(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, stream)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) assignmentStream(w http.ResponseWriter, r *http.Request, token, streamID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stream, err := a.registry.GetDeviceStream(r.Context(), token, streamID)
	if err != nil {
		writeError(w, err)
		return
	}
	if stream == nil {
		writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidStreamID), Message: "stream not found"})
		return
	}
	writeJSON(w, http.StatusOK, stream)
}

// AssignmentsForAssetHandler 处理 /assets/assignments（按资产引用查询）
func (a *API) AssignmentsForAssetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	ref := domain.AssetReference{Module: q.Get("module"), ID: q.Get("id")}
	if ref.Module == "" || ref.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "module and id are required"})
		return
	}
	criteria := domain.AssignmentsForAssetSearchCriteria{
		SearchCriteria: criteriaFromQuery(r),
		SiteToken:      q.Get("site"),
		Status:         domain.AssignmentStatus(q.Get("status")),
	}
	results, err := a.registry.GetDeviceAssignmentsForAsset(r.Context(), ref, criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
