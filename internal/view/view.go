// Package view derives presentation projections from store state.
package view

import (
	"sort"
	"time"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
)

// UncategorizedKey groups entries with no category.
const UncategorizedKey int64 = -1

// CategoryGroup is one category of the documentation tree.
type CategoryGroup struct {
	CategoryID   int64
	CategoryName string
	Projects     []ProjectGroup
}

type ProjectGroup struct {
	ProjectID   int64
	ProjectName string
	Entries     []docentry.Entry
}

// GroupDocumentation nests entries by category then project, in the order
// each group is first seen.
func GroupDocumentation(entries []docentry.Entry) []CategoryGroup {
	var groups []CategoryGroup
	catIndex := make(map[int64]int)
	projIndex := make(map[int64]map[int64]int)

	for _, e := range entries {
		key := UncategorizedKey
		if e.CategoryID != nil {
			key = *e.CategoryID
		}
		ci, ok := catIndex[key]
		if !ok {
			ci = len(groups)
			catIndex[key] = ci
			projIndex[key] = make(map[int64]int)
			name := e.CategoryName
			if name == "" {
				name = docentry.UncategorizedName
			}
			groups = append(groups, CategoryGroup{CategoryID: key, CategoryName: name})
		}
		pi, ok := projIndex[key][e.ProjectID]
		if !ok {
			pi = len(groups[ci].Projects)
			projIndex[key][e.ProjectID] = pi
			groups[ci].Projects = append(groups[ci].Projects, ProjectGroup{ProjectID: e.ProjectID, ProjectName: e.ProjectName})
		}
		groups[ci].Projects[pi].Entries = append(groups[ci].Projects[pi].Entries, e)
	}
	return groups
}

type Stats struct {
	TotalProjects int
	LastUpdated   time.Time
	SubProjects   subproject.Stats
}

func ProjectStats(projects []project.Project, subs []subproject.SubProject) Stats {
	st := Stats{SubProjects: subproject.ComputeStats(subs)}
	for _, p := range projects {
		if !p.IsActive {
			continue
		}
		st.TotalProjects++
		if p.UpdatedAt.After(st.LastUpdated) {
			st.LastUpdated = p.UpdatedAt
		}
	}
	return st
}

// CategoryProjectCounts returns categories with ProjectCount recomputed from
// the active projects.
func CategoryProjectCounts(categories []project.Category, projects []project.Project) []project.Category {
	counts := make(map[int64]int)
	for _, p := range projects {
		if p.IsActive && p.CategoryID != nil {
			counts[*p.CategoryID]++
		}
	}
	out := make([]project.Category, len(categories))
	for i, c := range categories {
		c.ProjectCount = counts[c.ID]
		out[i] = c
	}
	return out
}

type ItemKind string

const (
	KindContent ItemKind = "content"
	KindCommand ItemKind = "command"
)

// ExpiringItem is a content item or text command that is not safe.
type ExpiringItem struct {
	Kind           ItemKind
	ID             int64
	SubProjectID   int64
	SubProjectName string
	Label          string
	Value          string
	ExpiryDate     string
	Status         expiry.Status
	Text           string
}

// ExpiringItems lists every non-safe content item and text command of the
// active sub-projects, most urgent first.
func ExpiringItems(calc expiry.Calculator, subs []subproject.SubProject, now time.Time) []ExpiringItem {
	var items []ExpiringItem
	for _, s := range subs {
		if !s.IsActive {
			continue
		}
		for _, c := range s.Contents {
			if !calc.IsExpiringSoon(c.ExpiryDate, now) {
				continue
			}
			items = append(items, expiringItem(calc, KindContent, c.ID, s, c.ContentType.Name, c.ContentValue, c.ExpiryDate, now))
		}
		for _, cmd := range s.TextCommands {
			if !calc.IsExpiringSoon(cmd.ExpiryDate, now) {
				continue
			}
			items = append(items, expiringItem(calc, KindCommand, cmd.ID, s, "文字口令", cmd.CommandText, cmd.ExpiryDate, now))
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		di, _ := expiry.DaysRemaining(items[i].ExpiryDate, now)
		dj, _ := expiry.DaysRemaining(items[j].ExpiryDate, now)
		return di < dj
	})
	return items
}

func expiringItem(calc expiry.Calculator, kind ItemKind, id int64, s subproject.SubProject, label, value, date string, now time.Time) ExpiringItem {
	return ExpiringItem{
		Kind:           kind,
		ID:             id,
		SubProjectID:   s.ID,
		SubProjectName: s.Name,
		Label:          label,
		Value:          value,
		ExpiryDate:     date,
		Status:         calc.Status(date, now),
		Text:           expiry.Text(date, now),
	}
}

// ContentSummary counts a sub-project's contents and those not safe.
func ContentSummary(calc expiry.Calculator, items []content.Content, now time.Time) content.Summary {
	sum := content.Summary{Total: len(items)}
	for _, c := range items {
		if calc.IsExpiringSoon(c.ExpiryDate, now) {
			sum.ExpiringSoon++
		}
	}
	return sum
}
