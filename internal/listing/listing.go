// Package listing builds paginated, filtered list queries. The list and count statements for a
// request are derived from a single WHERE clause so the reported total always matches the rows
// reachable by paging.
package listing

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/platform/apperr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Op is the comparison a filter applies.
type Op int

const (
	Eq Op = iota
	Gte
	Lte
)

func (o Op) sql() string {
	switch o {
	case Gte:
		return ">="
	case Lte:
		return "<="
	default:
		return "="
	}
}

// ValueKind selects how a raw query-string value is parsed.
type ValueKind int

const (
	Text ValueKind = iota
	Bool
	Time
)

// Field declares one recognized filter: the query parameter, the column it constrains and how.
type Field struct {
	Param  string
	Column string
	Op     Op
	Kind   ValueKind
}

// Spec describes how an entity is listed. Fields are applied in declaration order.
type Spec struct {
	Select  string
	From    string
	Fields  []Field
	OrderBy string
}

// Filter holds parsed filter values keyed by Field.Param. Nil and empty-string values are ignored.
type Filter map[string]any

// Params is a 1-based page number and page size.
type Params struct {
	Page  int
	Limit int
}

// Offset returns (Page-1)*Limit, saturating at math.MaxInt when the product would overflow.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Pagination is the block returned alongside a page of rows.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Page is one page of rows plus its pagination.
type Page[T any] struct {
	Rows       []T
	Pagination Pagination
}

// Scanner is satisfied by pgx.Row and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Where renders the conjunction of all set filters and the positional arguments it binds.
// Returns "" and no args when no filter is set.
func (s Spec) Where(f Filter) (string, []any) {
	var (
		preds []string
		args  []any
	)
	for _, fld := range s.Fields {
		v, ok := f[fld.Param]
		if !ok || v == nil {
			continue
		}
		if str, isStr := v.(string); isStr && str == "" {
			continue
		}
		args = append(args, v)
		preds = append(preds, fmt.Sprintf("%s %s $%d", fld.Column, fld.Op.sql(), len(args)))
	}
	if len(preds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

// ListQuery returns the paginated SELECT for f and p.
func (s Spec) ListQuery(f Filter, p Params) (string, []any) {
	where, args := s.Where(f)
	n := len(args)
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		s.Select, s.From, where, s.OrderBy, n+1, n+2)
	return q, append(args, p.Limit, p.Offset())
}

// CountQuery returns the COUNT(*) over exactly the predicate ListQuery uses.
func (s Spec) CountQuery(f Filter) (string, []any) {
	where, args := s.Where(f)
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.From, where), args
}

// Fetch counts the matching rows, then reads the requested page with scan.
// A page past the end yields no rows and the true total.
func Fetch[T any](ctx context.Context, q db.DBTX, s Spec, f Filter, p Params, scan func(Scanner) (T, error)) (*Page[T], error) {
	countSQL, countArgs := s.CountQuery(f)
	var total int64
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	page := &Page[T]{
		Rows:       []T{},
		Pagination: NewPagination(p, total),
	}
	if int64(p.Offset()) >= total {
		return page, nil
	}
	listSQL, listArgs := s.ListQuery(f, p)
	rows, err := q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		page.Rows = append(page.Rows, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// NewPagination computes pages = ceil(total/limit).
func NewPagination(p Params, total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// ParseParams reads page and limit query values. Empty values take defaults; page < 1 becomes 1,
// limit < 1 becomes DefaultLimit and limit is capped at MaxLimit. Non-numeric input is a validation error.
func ParseParams(page, limit string) (Params, error) {
	p := Params{Page: 1, Limit: DefaultLimit}
	if page = strings.TrimSpace(page); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			return Params{}, apperr.Validation("page must be a number")
		}
		if n > 1 {
			p.Page = n
		}
	}
	if limit = strings.TrimSpace(limit); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return Params{}, apperr.Validation("limit must be a number")
		}
		switch {
		case n < 1:
			p.Limit = DefaultLimit
		case n > MaxLimit:
			p.Limit = MaxLimit
		default:
			p.Limit = n
		}
	}
	return p, nil
}

// ParseFilter reads every declared Field from get (typically url.Values.Get) and parses it by kind.
// Date-only values bound with Lte cover the whole day.
func (s Spec) ParseFilter(get func(string) string) (Filter, error) {
	f := Filter{}
	for _, fld := range s.Fields {
		raw := strings.TrimSpace(get(fld.Param))
		if raw == "" {
			continue
		}
		switch fld.Kind {
		case Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, apperr.Validation(fld.Param + " must be true or false")
			}
			f[fld.Param] = b
		case Time:
			t, err := parseTime(raw, fld.Op == Lte)
			if err != nil {
				return nil, apperr.Validation(fld.Param + " must be a date (YYYY-MM-DD) or RFC3339 timestamp")
			}
			f[fld.Param] = t
		default:
			f[fld.Param] = raw
		}
	}
	return f, nil
}

func parseTime(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
