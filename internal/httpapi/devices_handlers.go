package httpapi

import (
	"net/http"

	"device-registry/internal/domain"
	"device-registry/internal/export"
	"device-registry/internal/marshaling"

	"go.uber.org/zap"
)

// deviceMarshalOptionsFromQuery reads the hydration flags; asset and
// specification default to included.
func deviceMarshalOptionsFromQuery(r *http.Request) marshaling.DeviceMarshalOptions {
	q := r.URL.Query()
	return marshaling.DeviceMarshalOptions{
		IncludeAsset:         parseBool(q.Get("includeAsset"), true),
		IncludeSpecification: parseBool(q.Get("includeSpecification"), true),
		IncludeAssignment:    parseBool(q.Get("includeAssignment"), false),
		IncludeSite:          parseBool(q.Get("includeSite"), false),
		IncludeNested:        parseBool(q.Get("includeNested"), false),
	}
}

func deviceSearchCriteriaFromQuery(r *http.Request) domain.DeviceSearchCriteria {
	q := r.URL.Query()
	return domain.DeviceSearchCriteria{
		SearchCriteria:     criteriaFromQuery(r),
		SpecificationToken: q.Get("specification"),
		SiteToken:          q.Get("site"),
		ExcludeAssigned:    parseBool(q.Get("excludeAssigned"), false),
	}
}

// DevicesHandler 处理 /devices（列表、创建）
func (a *API) DevicesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		includeDeleted := parseBool(r.URL.Query().Get("includeDeleted"), false)
		results, err := a.registry.ListDevices(r.Context(), includeDeleted, deviceSearchCriteriaFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		marshaled, err := a.devices.MarshalDevices(r.Context(), results.Items, deviceMarshalOptionsFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SearchResults[marshaling.MarshaledDevice]{Total: results.Total, Items: marshaled})
	case http.MethodPost:
		var req domain.DeviceCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		device, err := a.registry.CreateDevice(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, device)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// DevicesExportHandler 处理 /devices/export（xlsx 下载）
func (a *API) DevicesExportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	includeDeleted := parseBool(r.URL.Query().Get("includeDeleted"), false)
	results, err := a.registry.ListDevices(r.Context(), includeDeleted, deviceSearchCriteriaFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	opts := deviceMarshalOptionsFromQuery(r)
	opts.IncludeNested = false
	marshaled, err := a.devices.MarshalDevices(r.Context(), results.Items, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="devices.xlsx"`)
	if err := export.WriteDeviceWorkbook(w, marshaled); err != nil {
		a.logger.Error("Device export failed", zap.Error(err))
	}
}

// DeviceByIDHandler 处理 /devices/{hardwareId} 及其子资源
func (a *API) DeviceByIDHandler(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, apiPrefix+"/devices")
	if len(parts) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	hardwareID := parts[0]

	if len(parts) == 1 {
		a.deviceResource(w, r, hardwareID)
		return
	}
	switch parts[1] {
	case "assignment":
		a.deviceCurrentAssignment(w, r, hardwareID)
	case "assignments":
		a.deviceAssignmentHistory(w, r, hardwareID)
	case "mappings":
		a.deviceMappings(w, r, hardwareID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *API) deviceResource(w http.ResponseWriter, r *http.Request, hardwareID string) {
	switch r.Method {
	case http.MethodGet:
		device, err := a.registry.GetDeviceByHardwareID(r.Context(), hardwareID)
		if err != nil {
			writeError(w, err)
			return
		}
		if device == nil {
			writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidHardwareID), Message: "device not found"})
			return
		}
		marshaled, err := a.devices.MarshalDevice(r.Context(), device, deviceMarshalOptionsFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, marshaled)
	case http.MethodPut:
		var req domain.DeviceCreateRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		device, err := a.registry.UpdateDevice(r.Context(), hardwareID, &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, device)
	case http.MethodDelete:
		force := parseBool(r.URL.Query().Get("force"), false)
		device, err := a.registry.DeleteDevice(r.Context(), hardwareID, force)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, device)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) deviceCurrentAssignment(w http.ResponseWriter, r *http.Request, hardwareID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	assignment, err := a.registry.GetCurrentDeviceAssignment(r.Context(), hardwareID)
	if err != nil {
		writeError(w, err)
		return
	}
	if assignment == nil {
		writeJSON(w, http.StatusNotFound, errorPayload{Code: string(domain.ErrInvalidAssignmentToken), Message: "device has no active assignment"})
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (a *API) deviceAssignmentHistory(w http.ResponseWriter, r *http.Request, hardwareID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	results, err := a.registry.GetDeviceAssignmentHistory(r.Context(), hardwareID, criteriaFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) deviceMappings(w http.ResponseWriter, r *http.Request, hardwareID string) {
	switch r.Method {
	case http.MethodPost:
		var mapping domain.DeviceElementMapping
		if err := readBodyJSON(r, maxBodyBytes, &mapping); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "InvalidPayload", Message: "malformed request body"})
			return
		}
		device, err := a.registry.CreateDeviceElementMapping(r.Context(), hardwareID, mapping)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, device)
	case http.MethodDelete:
		path := r.URL.Query().Get("path")
		device, err := a.registry.DeleteDeviceElementMapping(r.Context(), hardwareID, path)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, device)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
