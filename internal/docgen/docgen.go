// Package docgen builds the documentation read model: one entry per active,
// documentation enabled sub-project, joined to its project and category,
// with a flat label to value snapshot of the content shown in documentation.
package docgen

import (
	"fmt"
	"strings"
	"time"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
)

const (
	commandLabel  = "文字口令"
	expirySuffix  = "有效期"
	fallbackLabel = "内容"
)

// Source is the data a projection joins over.
type Source struct {
	Categories  []project.Category
	Projects    []project.Project
	SubProjects []subproject.SubProject
}

type Options struct {
	// SubProjectIDs restricts the projection when non-empty.
	SubProjectIDs []int64
	CategoryID    *int64
	ProjectID     *int64
	Keyword       string
}

func OptionsFromFilters(f docentry.Filters) Options {
	f = f.Normalized()
	return Options{CategoryID: f.CategoryID, ProjectID: f.ProjectID, Keyword: f.Keyword}
}

// Build projects src into documentation entries ordered newest first.
// Sub-projects whose parent project is missing or inactive are skipped.
func Build(src Source, opts Options, now time.Time) []docentry.Entry {
	projects := make(map[int64]project.Project, len(src.Projects))
	for _, p := range src.Projects {
		projects[p.ID] = p
	}
	categories := make(map[int64]project.Category, len(src.Categories))
	for _, c := range src.Categories {
		categories[c.ID] = c
	}
	var only map[int64]bool
	if len(opts.SubProjectIDs) > 0 {
		only = make(map[int64]bool, len(opts.SubProjectIDs))
		for _, id := range opts.SubProjectIDs {
			only[id] = true
		}
	}

	entries := make([]docentry.Entry, 0, len(src.SubProjects))
	for _, sub := range src.SubProjects {
		if !sub.IsActive || !sub.DocumentationEnabled {
			continue
		}
		if only != nil && !only[sub.ID] {
			continue
		}
		p, ok := projects[sub.ProjectID]
		if !ok || !p.IsActive {
			continue
		}
		if opts.ProjectID != nil && p.ID != *opts.ProjectID {
			continue
		}
		if !p.InCategory(opts.CategoryID) {
			continue
		}
		if !MatchKeyword(sub, opts.Keyword) {
			continue
		}
		entries = append(entries, entryFor(sub, p, categories, now))
	}
	docentry.SortNewestFirst(entries)
	return entries
}

func entryFor(sub subproject.SubProject, p project.Project, categories map[int64]project.Category, now time.Time) docentry.Entry {
	e := docentry.Entry{
		ID:             sub.ID,
		SubProjectID:   sub.ID,
		SubProjectName: sub.Name,
		ProjectID:      p.ID,
		ProjectName:    p.Name,
		CategoryName:   docentry.UncategorizedName,
		Snapshot:       Snapshot(sub, now),
		GeneratedAt:    now,
	}
	if sub.DocumentationGeneratedAt != nil {
		e.GeneratedAt = *sub.DocumentationGeneratedAt
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		e.CategoryID = &id
		if c, ok := categories[id]; ok && c.Name != "" {
			e.CategoryName = c.Name
		}
	}
	return e
}

// Snapshot flattens the visible content of sub into label to value pairs.
// Items carrying an expiry date get a companion "<label>有效期" key, text
// commands are keyed 文字口令, 文字口令 2 and so on, and repeated labels
// are numbered the same way.
func Snapshot(sub subproject.SubProject, now time.Time) map[string]any {
	snap := make(map[string]any)
	seen := make(map[string]int)

	for i, c := range sub.Contents {
		if !c.ShowInDocumentation {
			continue
		}
		base := strings.TrimSpace(c.ContentType.Name)
		if base == "" {
			base = fmt.Sprintf("%s %d", fallbackLabel, i+1)
		}
		label := uniqueLabel(base, seen)
		snap[label] = displayValue(c)
		if c.ExpiryDate != "" {
			snap[label+expirySuffix] = expiry.Text(c.ExpiryDate, now)
		}
	}

	for _, cmd := range sub.TextCommands {
		label := uniqueLabel(commandLabel, seen)
		snap[label] = cmd.CommandText
		snap[label+expirySuffix] = expiry.Text(cmd.ExpiryDate, now)
	}
	return snap
}

func uniqueLabel(base string, seen map[string]int) string {
	seen[base]++
	if n := seen[base]; n > 1 {
		return fmt.Sprintf("%s %d", base, n)
	}
	return base
}

// displayValue prefers the hosted URL of a linked image.
func displayValue(c content.Content) string {
	if c.ContentType.FieldType == content.FieldImage && c.UploadedImage != nil && c.UploadedImage.Links.URL != "" {
		return c.UploadedImage.Links.URL
	}
	return c.ContentValue
}

// MatchKeyword reports whether keyword occurs, case-insensitively, in the
// sub-project's name or description, any content value, or any command text.
func MatchKeyword(sub subproject.SubProject, keyword string) bool {
	query := strings.ToLower(strings.TrimSpace(keyword))
	if query == "" {
		return true
	}
	contains := func(s string) bool {
		return strings.Contains(strings.ToLower(s), query)
	}
	if contains(sub.Name) || contains(sub.Description) {
		return true
	}
	for _, c := range sub.Contents {
		if contains(c.ContentValue) {
			return true
		}
	}
	for _, cmd := range sub.TextCommands {
		if contains(cmd.CommandText) {
			return true
		}
	}
	return false
}
