package domain

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
)

// Reserved parameter keys
const (
	ParamPage  = "page"
	ParamLimit = "limit"
)

// Pagination is the page metadata returned alongside list data
type Pagination struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	PageCount int `json:"pageCount"`
}

// DefaultPagination is the state before the first fetch settles
func DefaultPagination() Pagination {
	return Pagination{Page: 1, Limit: 10}
}

// Params maps filter, sort and page keys to values
type Params map[string]any

// Merge returns a shallow copy of p with patch applied key by key
func (p Params) Merge(patch Params) Params {
	out := make(Params, len(p)+len(patch))
	maps.Copy(out, p)
	maps.Copy(out, patch)
	return out
}

// Clone returns a shallow copy
func (p Params) Clone() Params {
	return p.Merge(nil)
}

// Page returns the page parameter, or 0 if unset or not numeric
func (p Params) Page() int {
	n, _ := intValue(p[ParamPage])
	return n
}

// Limit returns the limit parameter, or 0 if unset or not numeric
func (p Params) Limit() int {
	n, _ := intValue(p[ParamLimit])
	return n
}

// Has reports whether key is present
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Query encodes params as URL query values, skipping nil and empty strings
func (p Params) Query() url.Values {
	q := url.Values{}
	for k, v := range p {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
			q.Set(k, val)
		default:
			q.Set(k, fmt.Sprint(val))
		}
	}
	return q
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
