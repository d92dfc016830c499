package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cps-console/internal/domain/docentry"
)

func newDocsCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documentation"},
		Short:   "Browse and regenerate project documentation",
	}

	var (
		categoryID, projectID int64
		keyword               string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Show documentation grouped by category and project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := docentry.Filters{
				CategoryID: optionalID(categoryID),
				ProjectID:  optionalID(projectID),
				Keyword:    keyword,
			}
			if _, err := c.stores.Documentation.Fetch(cmd.Context(), filters); err != nil {
				return err
			}
			return c.printDocs(cmd)
		},
	}
	list.Flags().Int64Var(&categoryID, "category", 0, "Only this category")
	list.Flags().Int64Var(&projectID, "project", 0, "Only this project")
	list.Flags().StringVarP(&keyword, "keyword", "k", "", "Match sub-project text, content or commands")

	generate := &cobra.Command{
		Use:   "generate [SUB_PROJECT_ID...]",
		Short: "Regenerate documentation for the given sub-projects, or all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			entries, err := c.stores.Documentation.Regenerate(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "regenerated, %d entries\n", len(entries))
			return nil
		},
	}

	cmd.AddCommand(list, generate)
	return cmd
}

func (c *console) printDocs(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	docs := c.stores.Documentation

	groups := docs.Grouped()
	if len(groups) == 0 {
		fmt.Fprintln(out, "no documentation")
		return nil
	}
	for _, g := range groups {
		fmt.Fprintf(out, "[%s]\n", g.CategoryName)
		for _, p := range g.Projects {
			fmt.Fprintf(out, "  %s\n", p.ProjectName)
			for _, e := range p.Entries {
				fmt.Fprintf(out, "    #%d %s (%s)\n", e.SubProjectID, e.SubProjectName, cellText(e.GeneratedAt))
				for _, line := range snapshotLines(e.Snapshot) {
					fmt.Fprintf(out, "      %s\n", line)
				}
			}
		}
	}
	fmt.Fprintf(out, "\nlast synced: %s\n", cellText(docs.LastSyncedAt()))
	return nil
}
