package controller

import (
	"errors"
	"net/http"
	"strings"

	"duckwatch/internal/modules/pond/status"
)

// pondQueryParam is the query parameter carrying the pond id on the status page.
const pondQueryParam = "pool"

var errMissingPond = errors.New("missing 'pool' query parameter")

// parsePondQuery returns the trimmed pond id from ?pool=. The id is otherwise
// passed through untouched; the store only ever sees it as a bound parameter.
func parsePondQuery(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get(pondQueryParam))
	if id == "" {
		return "", errMissingPond
	}
	return id, nil
}

// statusCodeFor maps a status build error to the HTTP status reported to callers.
func statusCodeFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, status.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrDataPortUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
