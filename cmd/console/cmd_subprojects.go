package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cps-console/internal/domain/subproject"
)

func newSubProjectsCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subprojects",
		Aliases: []string{"subproject", "sp"},
		Short:   "List, edit and reorder the sub-projects of a project",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list PROJECT_ID",
			Short: "List a project's sub-projects in display order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				projectID, err := parseID(args[0])
				if err != nil {
					return err
				}
				subs, err := c.stores.SubProjects.FetchByProject(cmd.Context(), projectID)
				if err != nil {
					return err
				}

				tw := newTable(cmd.OutOrStdout(), "ID", "ORDER", "NAME", "DOCS", "GENERATED", "CONTENTS", "COMMANDS")
				for _, s := range subs {
					row(tw, s.ID, s.SortOrder, s.Name, s.DocumentationEnabled, s.DocumentationGeneratedAt, len(s.Contents), len(s.TextCommands))
				}
				return tw.Flush()
			},
		},
		newSubProjectsCreateCmd(c),
		newSubProjectsUpdateCmd(c),
		&cobra.Command{
			Use:   "delete SUB_PROJECT_ID",
			Short: "Delete a sub-project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := c.stores.SubProjects.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted sub-project #%d\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reorder PROJECT_ID SUB_PROJECT_ID...",
			Short: "Set the display order of a project's sub-projects",
			Long: `Assigns sort orders 1..n to the given sub-projects, in argument order.

Example:
  console subprojects reorder 1 2 1`,
			Args: cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				projectID, err := parseID(args[0])
				if err != nil {
					return err
				}
				ids, err := parseIDs(args[1:])
				if err != nil {
					return err
				}
				subs, err := c.stores.SubProjects.Reorder(cmd.Context(), projectID, ids)
				if err != nil {
					return err
				}

				tw := newTable(cmd.OutOrStdout(), "ORDER", "ID", "NAME")
				for _, s := range subs {
					row(tw, s.SortOrder, s.ID, s.Name)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}

func newSubProjectsCreateCmd(c *console) *cobra.Command {
	var in subproject.CreateSubProjectInput
	cmd := &cobra.Command{
		Use:   "create PROJECT_ID",
		Short: "Create a sub-project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			in.ProjectID = projectID

			s, err := c.stores.SubProjects.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if s == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created sub-project #%d %s (order %d)\n", s.ID, s.Name, s.SortOrder)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Sub-project name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Sub-project description")
	cmd.Flags().IntVar(&in.SortOrder, "sort-order", 0, "Display order; 0 appends")
	cmd.Flags().BoolVar(&in.DocumentationEnabled, "docs", false, "Include in generated documentation")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSubProjectsUpdateCmd(c *console) *cobra.Command {
	var (
		name, description string
		sortOrder         int
		docs              bool
	)
	cmd := &cobra.Command{
		Use:   "update SUB_PROJECT_ID",
		Short: "Update the given fields of a sub-project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var in subproject.UpdateSubProjectInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("sort-order") {
				in.SortOrder = &sortOrder
			}
			if cmd.Flags().Changed("docs") {
				in.DocumentationEnabled = &docs
			}

			if _, err := c.stores.SubProjects.FetchByID(cmd.Context(), id); err != nil {
				return err
			}
			s, err := c.stores.SubProjects.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			if s == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated sub-project #%d %s\n", s.ID, s.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Sub-project name")
	cmd.Flags().StringVar(&description, "description", "", "Sub-project description")
	cmd.Flags().IntVar(&sortOrder, "sort-order", 0, "Display order")
	cmd.Flags().BoolVar(&docs, "docs", false, "Include in generated documentation")
	return cmd
}
