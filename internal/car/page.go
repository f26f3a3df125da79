package car

import "strings"

// Page is a pagination window: zero-based page number, page size and an
// optional "field,dir" sort expression.
type Page struct {
	Number int
	Size   int
	Sort   string
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Normalized returns the page with number/size clamped to sane bounds.
func (p Page) Normalized() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

func (p Page) offset() int { return p.Number * p.Size }

// sortColumns whitelists JSON field names against real columns; anything else
// falls back to the primary key to keep user input out of the ORDER BY.
var sortColumns = map[string]string{
	"id":              "id",
	"make":            "make",
	"model":           "model",
	"manufactureYear": "manufacture_year",
	"vin":             "vin",
	"version":         "row_version",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
}

func (p Page) orderClause() string {
	field, dir, _ := strings.Cut(p.Sort, ",")
	col, ok := sortColumns[strings.TrimSpace(field)]
	if !ok {
		return "id asc"
	}
	if strings.EqualFold(strings.TrimSpace(dir), "desc") {
		return col + " desc"
	}
	return col + " asc"
}

// PageResult is one window of cars plus the metadata describing it.
type PageResult struct {
	Content       []Car
	Number        int
	Size          int
	TotalElements int64
}

// TotalPages derives the page count from the total and the window size.
func (p PageResult) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}
