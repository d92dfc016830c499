package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cps-console/internal/domain/project"
	"cps-console/internal/view"
)

func newCategoriesCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "List and edit project categories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List active categories with their project counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := c.stores.Categories.Fetch(cmd.Context()); err != nil {
					return err
				}
				if _, _, err := c.stores.Projects.Fetch(cmd.Context(), project.ListProjectsFilter{}); err != nil {
					return err
				}
				counted := view.CategoryProjectCounts(c.stores.Categories.Active(), c.stores.Projects.Projects())

				tw := newTable(cmd.OutOrStdout(), "ID", "ORDER", "NAME", "PROJECTS", "DESCRIPTION")
				for _, cat := range counted {
					row(tw, cat.ID, cat.SortOrder, cat.Name, cat.ProjectCount, cat.Description)
				}
				return tw.Flush()
			},
		},
		newCategoriesCreateCmd(c),
		newCategoriesUpdateCmd(c),
		&cobra.Command{
			Use:   "delete CATEGORY_ID",
			Short: "Deactivate a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := c.stores.Categories.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted category #%d\n", id)
				return nil
			},
		},
	)
	return cmd
}

func newCategoriesCreateCmd(c *console) *cobra.Command {
	var in project.CreateCategoryInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.stores.Categories.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if cat == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created category #%d %s\n", cat.ID, cat.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Category name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Category description")
	cmd.Flags().IntVar(&in.SortOrder, "sort-order", 0, "Position in category lists")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCategoriesUpdateCmd(c *console) *cobra.Command {
	var (
		name, description string
		sortOrder         int
		active            bool
	)
	cmd := &cobra.Command{
		Use:   "update CATEGORY_ID",
		Short: "Update the given fields of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var in project.UpdateCategoryInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("sort-order") {
				in.SortOrder = &sortOrder
			}
			if cmd.Flags().Changed("active") {
				in.IsActive = &active
			}

			if _, err := c.stores.Categories.Fetch(cmd.Context()); err != nil {
				return err
			}
			cat, err := c.stores.Categories.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			if cat == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated category #%d %s\n", cat.ID, cat.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Category name")
	cmd.Flags().StringVar(&description, "description", "", "Category description")
	cmd.Flags().IntVar(&sortOrder, "sort-order", 0, "Position in category lists")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the category is active")
	return cmd
}
