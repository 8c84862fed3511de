package cache

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator delimits the segments of a cache key.
const KeySeparator = "::"

// ListKey derives a deterministic key for a paginated list query. Filters are
// normalized by sorting on filter name before hashing, so two filter sets
// that differ only in insertion order produce the same key. The principal ID
// is part of the hashed payload: identical queries issued by different
// principals can never share an entry, even if ownership scoping were ever
// misapplied on the miss path.
func ListKey(resource string, filters map[string]string, page, perPage int, principalID string) string {
	var b strings.Builder
	b.WriteString(canonicalFilters(filters))
	b.WriteString("|page=")
	b.WriteString(strconv.Itoa(page))
	b.WriteString("|per_page=")
	b.WriteString(strconv.Itoa(perPage))
	b.WriteString("|principal=")
	b.WriteString(url.QueryEscape(principalID))

	sum := xxhash.Sum64String(b.String())
	return resource + KeySeparator + "list" + KeySeparator + strconv.FormatUint(sum, 16)
}

// ItemKey derives the key for a single record's cached entry. Item identity
// is global rather than tenant-qualified: ownership is enforced by the scoped
// query that populates the entry.
func ItemKey(resource, id string) string {
	return resource + KeySeparator + "item" + KeySeparator + id
}

// CollectionTag is the tag shared by every cached list-style query for a
// record type. It is constant per resource so that any single-record mutation
// can ripple through all cached pages without enumerating their keys.
func CollectionTag(resource string) string {
	return resource
}

// ItemTag is the tag unique to one record's cached entries.
func ItemTag(resource, id string) string {
	return resource + ":" + id
}

// canonicalFilters serializes a filter set into a stable byte string. Names
// and values are escaped so that no two distinct filter sets can collide.
func canonicalFilters(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = url.QueryEscape(name) + "=" + url.QueryEscape(filters[name])
	}
	return strings.Join(pairs, "&")
}
