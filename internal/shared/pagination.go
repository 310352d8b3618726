package shared

import (
	"net/http"
	"strconv"
)

// PageQuery carries offset pagination parameters parsed from a request.
type PageQuery struct {
	Skip  int
	Limit int
}

// ParsePageQuery reads skip/limit query parameters with bounds applied.
func ParsePageQuery(r *http.Request) PageQuery {
	q := PageQuery{Skip: 0, Limit: 10}
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v >= 0 {
		q.Skip = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 {
		q.Limit = v
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q
}
