package docentry

import (
	"sort"
	"strings"
	"time"
)

// UncategorizedName labels entries whose project has no category.
const UncategorizedName = "未分类"

// Entry is the generated documentation of one sub-project.
type Entry struct {
	ID             int64          `json:"id"`
	SubProjectID   int64          `json:"subProjectId"`
	SubProjectName string         `json:"subProjectName"`
	ProjectID      int64          `json:"projectId"`
	ProjectName    string         `json:"projectName"`
	CategoryID     *int64         `json:"categoryId"`
	CategoryName   string         `json:"categoryName"`
	Snapshot       map[string]any `json:"snapshot"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

// Filters narrow a documentation listing.
type Filters struct {
	CategoryID *int64
	ProjectID  *int64
	Keyword    string
}

// Normalized trims the keyword so equal filters compare equal.
func (f Filters) Normalized() Filters {
	f.Keyword = strings.TrimSpace(f.Keyword)
	return f
}

type GenerateInput struct {
	SubProjectIDs []int64 `json:"subProjectIds,omitempty"`
}

// Listing is what a documentation list call yields: the entries and the
// server's notion of when they were last generated, if any.
type Listing struct {
	Entries      []Entry
	LastSyncedAt *time.Time
}

// SortNewestFirst orders entries by GeneratedAt descending.
func SortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].GeneratedAt.After(entries[j].GeneratedAt)
	})
}
