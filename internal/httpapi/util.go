package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"device-registry/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorPayload 错误响应体（code 为稳定业务错误码）
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps registry error codes onto HTTP statuses. Unknown errors
// become 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	var regErr *domain.Error
	if !errors.As(err, &regErr) {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Code: "InternalError", Message: "internal error"})
		return
	}
	status := http.StatusBadRequest
	switch regErr.Code {
	case domain.ErrInvalidSiteToken, domain.ErrInvalidZoneToken, domain.ErrInvalidSpecificationToken,
		domain.ErrInvalidCommandToken, domain.ErrInvalidStatusCode, domain.ErrInvalidHardwareID,
		domain.ErrInvalidAssignmentToken, domain.ErrInvalidGroupToken, domain.ErrInvalidStreamID:
		status = http.StatusNotFound
	case domain.ErrDuplicateSiteToken, domain.ErrDuplicateZoneToken, domain.ErrDuplicateSpecificationToken,
		domain.ErrDuplicateCommandName, domain.ErrDuplicateStatusCode, domain.ErrDuplicateHardwareID,
		domain.ErrDuplicateAssignmentToken, domain.ErrDuplicateGroupToken, domain.ErrDuplicateGroupElement,
		domain.ErrDuplicateStreamID,
		domain.ErrDeviceAlreadyAssigned, domain.ErrDeviceCannotBeDeletedIfAssigned,
		domain.ErrDeviceElementMappingExists, domain.ErrAssignmentNotReleased:
		status = http.StatusConflict
	case domain.ErrStoreUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorPayload{Code: string(regErr.Code), Message: regErr.Message})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// criteriaFromQuery reads page/pageSize plus the optional RFC3339
// startDate/endDate range.
func criteriaFromQuery(r *http.Request) domain.SearchCriteria {
	q := r.URL.Query()
	criteria := domain.NewSearchCriteria(parseInt(q.Get("page"), 1), parseInt(q.Get("pageSize"), 100))
	if v := q.Get("startDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			criteria.StartDate = &t
		}
	}
	if v := q.Get("endDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			criteria.EndDate = &t
		}
	}
	return criteria
}
