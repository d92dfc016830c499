package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"cps-console/internal/domain/docentry"
)

// listKeys are the wrapper keys that may hold a collection, checked in order.
var listKeys = []string{"items", "data", "entries", "list", "records"}

// List extracts the records of a collection response. It accepts a bare
// array, an {items} wrapper, a paginated {data, pagination} object and an
// {entries} object whose value may itself be wrapped. Non-object elements
// are skipped. Unknown shapes yield an empty slice.
func List(data any) []Raw {
	return listDepth(data, 0)
}

const maxListDepth = 4

func listDepth(data any, depth int) []Raw {
	switch v := data.(type) {
	case []any:
		out := make([]Raw, 0, len(v))
		for _, item := range v {
			if m, ok := item.(Raw); ok {
				out = append(out, m)
			}
		}
		return out
	case []Raw:
		return v
	case Raw:
		if depth >= maxListDepth {
			return []Raw{}
		}
		for _, key := range listKeys {
			inner, ok := v[key]
			if !ok || inner == nil {
				continue
			}
			switch inner.(type) {
			case []any, []Raw, Raw:
				return listDepth(inner, depth+1)
			}
		}
		return []Raw{}
	default:
		return []Raw{}
	}
}

// PageMeta is the pagination block of a paginated list response.
type PageMeta struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

var pageFields = table{
	"limit":      {"limit", "pageSize", "page_size", "perPage", "per_page"},
	"totalPages": {"totalPages", "total_pages", "pages"},
}

// Pagination returns the pagination meta of data, if it carries one.
func Pagination(data any) (PageMeta, bool) {
	m, ok := data.(Raw)
	if !ok {
		return PageMeta{}, false
	}
	p, ok := m["pagination"].(Raw)
	if !ok {
		return PageMeta{}, false
	}
	res := newResolver(p, pageFields, time.Time{})
	meta := PageMeta{
		Page:       res.int("page"),
		Limit:      res.int("limit"),
		Total:      res.int("total"),
		TotalPages: res.int("totalPages"),
	}
	if meta.TotalPages == 0 && meta.Limit > 0 {
		meta.TotalPages = (meta.Total + meta.Limit - 1) / meta.Limit
	}
	return meta, true
}

// snapshotFallbackKey holds a snapshot string that is not a JSON object.
const snapshotFallbackKey = "content"

// Snapshot parses a documentation snapshot blob. Objects are returned as
// is, JSON encoded objects are decoded, and any other string is wrapped
// under a single "content" key. A missing value yields an empty map.
func Snapshot(v any) map[string]any {
	switch s := v.(type) {
	case Raw:
		return s
	case string:
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return map[string]any{}
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed != nil {
			return parsed
		}
		return map[string]any{snapshotFallbackKey: s}
	case nil:
		return map[string]any{}
	default:
		return map[string]any{snapshotFallbackKey: v}
	}
}

var listingFields = table{
	"lastSyncedAt": {"generatedAt", "generated_at", "lastGeneratedAt", "last_generated_at", "lastSyncedAt", "last_synced_at", "syncedAt", "synced_at"},
}

// DocumentationListing normalizes a documentation list response. The sync
// time comes from the wrapper when it carries one, else from the first
// entry as the server returned it.
func DocumentationListing(data any, now time.Time) docentry.Listing {
	records := List(data)
	listing := docentry.Listing{Entries: make([]docentry.Entry, 0, len(records))}
	for _, r := range records {
		listing.Entries = append(listing.Entries, DocumentationEntry(r, now))
	}
	if m, ok := data.(Raw); ok {
		listing.LastSyncedAt = newResolver(m, listingFields, now).timePtr("lastSyncedAt")
	}
	if listing.LastSyncedAt == nil && len(listing.Entries) > 0 {
		at := listing.Entries[0].GeneratedAt
		listing.LastSyncedAt = &at
	}
	docentry.SortNewestFirst(listing.Entries)
	return listing
}
