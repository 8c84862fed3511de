package scopedcache

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Pagination bounds for list queries.
const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// Pagination selects one page of a list query. The zero value resolves to
// the first page with DefaultPerPage items.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Validate checks the pagination bounds.
func (p Pagination) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Page, validation.Min(1)),
		validation.Field(&p.PerPage, validation.Min(1), validation.Max(MaxPerPage)),
	)
}

func (p Pagination) withDefaults() Pagination {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PerPage == 0 {
		p.PerPage = DefaultPerPage
	}
	return p
}

// Page is one page of records together with the total match count.
type Page[T any] struct {
	Items   []T `json:"items" msgpack:"items"`
	Total   int `json:"total" msgpack:"total"`
	Page    int `json:"page" msgpack:"page"`
	PerPage int `json:"per_page" msgpack:"per_page"`
}

func paginateCriteria(p Pagination) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(p.PerPage).Offset((p.Page - 1) * p.PerPage)
	}
}
