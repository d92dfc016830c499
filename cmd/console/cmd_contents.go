package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cps-console/internal/app"
	"cps-console/internal/domain/content"
)

func newContentTypesCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "content-types",
		Aliases: []string{"types"},
		Short:   "Manage the content type catalogue",
	}

	var in content.CreateTypeInput
	var fieldType string
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a custom content type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.FieldType = content.FieldType(fieldType)
			t, err := c.stores.Contents.CreateContentType(cmd.Context(), in)
			if err != nil {
				return err
			}
			if t == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created content type #%d %s (%s)\n", t.ID, t.Name, t.FieldType)
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Type name")
	create.Flags().StringVar(&fieldType, "field-type", string(content.FieldText), "One of text, url, image, date, number")
	create.Flags().BoolVar(&in.HasExpiry, "has-expiry", false, "Values of this type expire")
	create.Flags().StringVar(&in.Description, "description", "", "Type description")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List content types",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				types, err := c.stores.Contents.FetchContentTypes(cmd.Context())
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "FIELD", "EXPIRY", "SYSTEM", "DESCRIPTION")
				for _, t := range types {
					row(tw, t.ID, t.Name, string(t.FieldType), t.HasExpiry, t.IsSystem, t.Description)
				}
				return tw.Flush()
			},
		},
		create,
		&cobra.Command{
			Use:   "delete TYPE_ID",
			Short: "Delete a custom content type",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if _, err := c.stores.Contents.FetchContentTypes(cmd.Context()); err != nil {
					return err
				}
				if err := c.stores.Contents.DeleteContentType(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted content type #%d\n", id)
				return nil
			},
		},
	)
	return cmd
}

// contentFlags binds the flags shared by contents add and update.
type contentFlags struct {
	typeID      int64
	value       string
	expiryDays  int
	imageID     int64
	hideFromDoc bool
}

func (f *contentFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.typeID, "type", 0, "Content type ID")
	cmd.Flags().StringVar(&f.value, "value", "", "Content value")
	cmd.Flags().IntVar(&f.expiryDays, "expiry-days", 0, "Days until the value expires; 0 never expires")
	cmd.Flags().Int64Var(&f.imageID, "image", 0, "Uploaded image ID backing the value")
	cmd.Flags().BoolVar(&f.hideFromDoc, "hide", false, "Leave the item out of generated documentation")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("value")
}

func (f *contentFlags) input(subProjectID int64) content.SaveContentInput {
	show := !f.hideFromDoc
	in := content.SaveContentInput{
		SubProjectID:        subProjectID,
		ContentTypeID:       f.typeID,
		ContentValue:        f.value,
		UploadedImageID:     optionalID(f.imageID),
		ShowInDocumentation: &show,
	}
	if f.expiryDays > 0 {
		days := f.expiryDays
		in.ExpiryDays = &days
	}
	return in
}

func newContentsCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contents",
		Aliases: []string{"content"},
		Short:   "Manage the content items of a sub-project",
	}

	var addFlags contentFlags
	add := &cobra.Command{
		Use:   "add SUB_PROJECT_ID",
		Short: "Add a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.loadContentContext(cmd, subID); err != nil {
				return err
			}
			item, err := c.stores.Contents.AddContent(cmd.Context(), addFlags.input(subID))
			if err != nil {
				return err
			}
			if item == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added content #%d to sub-project #%d\n", item.ID, subID)
			return nil
		},
	}
	addFlags.bind(add)

	var (
		updateFlags contentFlags
		updateSubID int64
	)
	update := &cobra.Command{
		Use:   "update CONTENT_ID",
		Short: "Replace a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.loadContentContext(cmd, updateSubID); err != nil {
				return err
			}
			item, err := c.stores.Contents.UpdateContent(cmd.Context(), id, updateFlags.input(updateSubID))
			if err != nil {
				return err
			}
			if item == nil {
				return errCanceled
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated content #%d\n", item.ID)
			return nil
		},
	}
	updateFlags.bind(update)
	update.Flags().Int64Var(&updateSubID, "sub-project", 0, "Sub-project owning the item")
	_ = update.MarkFlagRequired("sub-project")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list SUB_PROJECT_ID",
			Short: "List a sub-project's content items",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				subID, err := parseID(args[0])
				if err != nil {
					return err
				}
				sub, err := c.stores.SubProjects.FetchByID(cmd.Context(), subID)
				if err != nil {
					return err
				}
				if sub == nil {
					return errCanceled
				}

				now := time.Now()
				tw := newTable(cmd.OutOrStdout(), "ID", "TYPE", "VALUE", "EXPIRY", "IN DOCS")
				for _, item := range sub.Contents {
					row(tw, item.ID, item.ContentType.Name, item.ContentValue,
						expiryCell(item.ExpiryDate, item.ExpiryStatus, now), item.ShowInDocumentation)
				}
				return tw.Flush()
			},
		},
		add,
		update,
		&cobra.Command{
			Use:   "delete CONTENT_ID",
			Short: "Delete a content item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := c.stores.Contents.RemoveContent(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted content #%d\n", id)
				return nil
			},
		},
	)
	return cmd
}

// loadContentContext fetches what content edits are checked against: the
// type catalogue and the owning sub-project.
func (c *console) loadContentContext(cmd *cobra.Command, subID int64) error {
	if _, err := c.stores.Contents.FetchContentTypes(cmd.Context()); err != nil {
		return err
	}
	_, err := c.stores.SubProjects.FetchByID(cmd.Context(), subID)
	return err
}

func newCommandsCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "commands",
		Aliases: []string{"command", "cmd"},
		Short:   "Manage expiring text commands",
	}

	var (
		addText string
		addDays int
	)
	add := &cobra.Command{
		Use:   "add SUB_PROJECT_ID",
		Short: "Add a text command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.saveCommand(cmd, content.SaveTextCommandInput{SubProjectID: subID, CommandText: addText, ExpiryDays: addDays})
		},
	}
	add.Flags().StringVar(&addText, "text", "", "Command text")
	add.Flags().IntVar(&addDays, "days", 30, "Days until the command expires")
	_ = add.MarkFlagRequired("text")

	var (
		updateText  string
		updateDays  int
		updateSubID int64
	)
	update := &cobra.Command{
		Use:   "update COMMAND_ID",
		Short: "Replace a text command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.saveCommand(cmd, content.SaveTextCommandInput{ID: id, SubProjectID: updateSubID, CommandText: updateText, ExpiryDays: updateDays})
		},
	}
	update.Flags().StringVar(&updateText, "text", "", "Command text")
	update.Flags().IntVar(&updateDays, "days", 30, "Days until the command expires")
	update.Flags().Int64Var(&updateSubID, "sub-project", 0, "Sub-project owning the command")
	_ = update.MarkFlagRequired("text")
	_ = update.MarkFlagRequired("sub-project")

	cmd.AddCommand(
		add,
		update,
		&cobra.Command{
			Use:   "delete COMMAND_ID...",
			Short: "Delete one or more text commands",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseIDs(args)
				if err != nil {
					return err
				}
				if len(ids) == 1 {
					err = c.stores.Contents.RemoveTextCommand(cmd.Context(), ids[0])
				} else {
					err = c.stores.Contents.BulkRemoveTextCommands(cmd.Context(), ids)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d text command(s)\n", len(ids))
				return nil
			},
		},
		&cobra.Command{
			Use:   "expiring",
			Short: "List content and commands that are expired or about to expire",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				items, err := app.ExpiringItems(cmd.Context(), c.stores, time.Now())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "nothing expiring")
					return nil
				}
				tw := newTable(out, "STATUS", "DATE", "LEFT", "KIND", "ID", "SUB-PROJECT", "LABEL", "VALUE")
				for _, item := range items {
					row(tw, string(item.Status), item.ExpiryDate, item.Text, string(item.Kind), item.ID, item.SubProjectName, item.Label, item.Value)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}

func (c *console) saveCommand(cmd *cobra.Command, in content.SaveTextCommandInput) error {
	if _, err := c.stores.SubProjects.FetchByID(cmd.Context(), in.SubProjectID); err != nil {
		return err
	}
	saved, err := c.stores.Contents.SaveTextCommand(cmd.Context(), in)
	if err != nil {
		return err
	}
	if saved == nil {
		return errCanceled
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved text command #%d, expires %s\n", saved.ID, saved.ExpiryDate)
	return nil
}
