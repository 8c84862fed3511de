package scopedcache

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Filters is the unordered filter set supplied by a caller, mapping a
// declared filter name to its value. Key derivation normalizes the set by
// sorted name, so two permutations of the same pairs hit the same cache
// entry.
type Filters map[string]string

// FilterFunc constrains a list query with one filter value.
type FilterFunc func(q *bun.SelectQuery, value string) *bun.SelectQuery

func (f FilterFunc) criteria(value string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return f(q, value)
	}
}

// Equals declares a filter matching a column exactly.
func Equals(column string) FilterFunc {
	return func(q *bun.SelectQuery, value string) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(column), value)
	}
}

// Contains declares a case-insensitive substring filter on a column, for
// free-text search style filters.
func Contains(column string) FilterFunc {
	return func(q *bun.SelectQuery, value string) *bun.SelectQuery {
		return q.Where("? ILIKE ?", bun.Ident(column), "%"+value+"%")
	}
}
