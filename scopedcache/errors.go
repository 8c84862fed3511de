package scopedcache

import (
	"database/sql"
	"errors"
	"strings"
)

// ErrNotFound is returned when a record does not exist or exists but is
// owned by a different principal. The two cases are never distinguished:
// surfacing "exists but not yours" would leak the existence of other
// tenants' records.
var ErrNotFound = errors.New("not_found")

// UnknownFilterError is returned when a caller supplies a filter name the
// resource never declared.
type UnknownFilterError struct {
	Resource string
	Name     string
}

func (e *UnknownFilterError) Error() string {
	return "unknown filter " + e.Name + " for resource " + e.Resource
}

// isNoRows reports whether a store error means "no matching row". The
// repository layer may rewrap driver errors without preserving the chain, so
// the full sql.ErrNoRows message is matched as a last resort; anything
// looser would misclassify unrelated errors that merely mention rows.
func isNoRows(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	return strings.Contains(err.Error(), sql.ErrNoRows.Error())
}
