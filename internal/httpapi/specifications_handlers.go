package httpapi

import (
	"net/http"

	"device-registry/internal/domain"
)

// SpecificationsHandler 处理 /specifications（列表、创建）
func (a *API) SpecificationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		includeDeleted := parseBool(r.URL.Query().Get("includeDeleted"), false)
		results, err := a.registry.ListDeviceSpecifications(r.Context(), includeDeleted, criteriaFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodPost:
		var req domain.DeviceSpecificationCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		spec, err := a.registry.CreateDeviceSpecification(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, spec)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SpecificationByTokenHandler 处理 /specifications/{token} 及其子资源
func (a *API) SpecificationByTokenHandler(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, apiPrefix+"/specifications")
	if len(parts) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token := parts[0]

	if len(parts) == 1 {
		a.specificationResource(w, r, token)
		return
	}
	switch parts[1] {
	case "commands":
		a.specificationCommands(w, r, token)
	case "statuses":
		if len(parts) == 3 {
			a.specificationStatus(w, r, token, parts[2])
			return
		}
		a.specificationStatuses(w, r, token)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *API) specificationResource(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		spec, err := a.registry.GetDeviceSpecificationByToken(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if spec == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidSpecificationToken), Message: "specification not found"})
			return
		}
		writeJSON(w, http.StatusOK, spec)
	case http.MethodPut:
		var req domain.DeviceSpecificationCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		spec, err := a.registry.UpdateDeviceSpecification(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, spec)
	case http.MethodDelete:
		force := parseBool(r.URL.Query().Get("force"), false)
		spec, err := a.registry.DeleteDeviceSpecification(r.Context(), token, force)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, spec)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) specificationCommands(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		includeDeleted := parseBool(r.URL.Query().Get("includeDeleted"), false)
		commands, err := a.registry.ListDeviceCommands(r.Context(), token, includeDeleted)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, commands)
	case http.MethodPost:
		var req domain.DeviceCommandCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		command, err := a.registry.CreateDeviceCommand(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, command)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) specificationStatuses(w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		statuses, err := a.registry.ListDeviceStatuses(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statuses)
	case http.MethodPost:
		var req domain.DeviceStatusCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		status, err := a.registry.CreateDeviceStatus(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, status)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) specificationStatus(w http.ResponseWriter, r *http.Request, token, code string) {
	switch r.Method {
	case http.MethodGet:
		status, err := a.registry.GetDeviceStatusByCode(r.Context(), token, code)
		if err != nil {
			writeError(w, err)
			return
		}
		if status == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidStatusCode), Message: "status not found"})
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodPut:
		var req domain.DeviceStatusCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		status, err := a.registry.UpdateDeviceStatus(r.Context(), token, code, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodDelete:
		status, err := a.registry.DeleteDeviceStatus(r.Context(), token, code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CommandByTokenHandler 处理 /commands/{token}
func (a *API) CommandByTokenHandler(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, apiPrefix+"/commands")
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token := parts[0]

	switch r.Method {
	case http.MethodGet:
		command, err := a.registry.GetDeviceCommandByToken(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if command == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidCommandToken), Message: "command not found"})
			return
		}
		writeJSON(w, http.StatusOK, command)
	case http.MethodPut:
		var req domain.DeviceCommandCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		command, err := a.registry.UpdateDeviceCommand(r.Context(), token, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, command)
	case http.MethodDelete:
		force := parseBool(r.URL.Query().Get("force"), false)
		command, err := a.registry.DeleteDeviceCommand(r.Context(), token, force)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, command)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
