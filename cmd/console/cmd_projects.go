package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cps-console/internal/domain/project"
	"cps-console/internal/view"
)

func newProjectsCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "List and edit marketing projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(c),
		newProjectsShowCmd(c),
		newProjectsCreateCmd(c),
		newProjectsUpdateCmd(c),
		newProjectsDeleteCmd(c),
	)
	return cmd
}

func newProjectsListCmd(c *console) *cobra.Command {
	var (
		keyword    string
		categoryID int64
		page       int
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := project.ListProjectsFilter{
				Keyword:    keyword,
				CategoryID: optionalID(categoryID),
				Page:       page,
				Limit:      limit,
			}
			fetched, total, err := c.stores.Projects.Fetch(cmd.Context(), filter)
			if err != nil {
				return err
			}
			c.stores.Projects.SetSearchQuery(keyword)
			c.stores.Projects.SetCategoryFilter(optionalID(categoryID))
			items := c.stores.Projects.FilteredProjects()
			// Rows filtered out locally are not part of the total either.
			total -= len(fetched) - len(items)

			out := cmd.OutOrStdout()
			tw := newTable(out, "ID", "NAME", "CATEGORY", "SUB-PROJECTS", "DOCS", "UPDATED")
			for _, p := range items {
				row(tw, p.ID, p.Name, categoryName(p), p.SubProjectCount, p.DocumentationCount, p.UpdatedAt)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if page > 0 || limit > 0 {
				pg := view.NewPagination()
				if limit > 0 {
					pg.SetLimit(limit)
				}
				pg.SetTotal(total)
				pg.SetPage(page)
				fmt.Fprintf(out, "\npage %d/%d, %d projects\n", pg.Page, pg.TotalPages(), total)
				return nil
			}
			fmt.Fprintf(out, "\n%d projects\n", total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Match name or description")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "Only projects in this category")
	cmd.Flags().IntVar(&page, "page", 0, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	return cmd
}

func newProjectsShowCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT_ID",
		Short: "Show a project and its sub-projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := c.stores.Projects.FetchByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			subs, err := c.stores.SubProjects.FetchByProject(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if p != nil {
				fmt.Fprintf(out, "#%d %s\n", p.ID, p.Name)
				if p.Description != "" {
					fmt.Fprintln(out, p.Description)
				}
				fmt.Fprintf(out, "category: %s\n\n", cellText(categoryName(*p)))
			}

			tw := newTable(out, "ID", "ORDER", "NAME", "DOCS", "CONTENTS", "EXPIRING", "COMMANDS")
			for _, s := range subs {
				sum := c.stores.Contents.ContentSummary(s.ID)
				row(tw, s.ID, s.SortOrder, s.Name, s.DocumentationEnabled, sum.Total, sum.ExpiringSoon, len(s.TextCommands))
			}
			return tw.Flush()
		},
	}
}

func newProjectsCreateCmd(c *console) *cobra.Command {
	var (
		in         project.CreateProjectInput
		categoryID int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.CategoryID = optionalID(categoryID)
			p, err := c.stores.Projects.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if p == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project #%d %s\n", p.ID, p.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Project description")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "Category ID")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsUpdateCmd(c *console) *cobra.Command {
	var (
		name, description string
		categoryID        int64
	)
	cmd := &cobra.Command{
		Use:   "update PROJECT_ID",
		Short: "Update the given fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var in project.UpdateProjectInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("category") {
				in.CategoryID = &categoryID
			}

			p, err := c.stores.Projects.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			if p == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated project #%d %s\n", p.ID, p.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "Category ID")
	return cmd
}

func newProjectsDeleteCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PROJECT_ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.stores.Projects.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted project #%d\n", id)
			return nil
		},
	}
}
