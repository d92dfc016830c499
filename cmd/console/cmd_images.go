package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cps-console/internal/app"
	"cps-console/internal/imagehost"
)

var errNoImageProvider = errors.New("no image provider configured; set IMAGE_PROVIDER to picui or s3")

func newImagesCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image", "img"},
		Short:   "Upload images to the image host and list recorded uploads",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recorded uploads",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				images, err := c.backend.ListUploadedImages(cmd.Context())
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "SIZE", "DIMENSIONS", "URL")
				for _, img := range images {
					row(tw, img.ID, img.OriginName, img.Size, fmt.Sprintf("%dx%d", img.Width, img.Height), img.Links.URL)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "upload FILE...",
			Short: "Upload image files and record them",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				uploader, err := app.NewImageUploader(c.cfg, c.backend, c.log)
				if err != nil {
					return err
				}
				if uploader == nil {
					return errNoImageProvider
				}

				files := make([]imagehost.File, 0, len(args))
				for _, path := range args {
					f, err := readImageFile(path)
					if err != nil {
						return err
					}
					if err := uploader.Validate(f); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					files = append(files, f)
				}

				uploaded := uploader.UploadMany(cmd.Context(), files)
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "URL")
				for _, img := range uploaded {
					row(tw, img.ID, img.OriginName, img.Links.URL)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if failed := len(files) - len(uploaded); failed > 0 {
					return fmt.Errorf("%d of %d uploads failed", failed, len(files))
				}
				return nil
			},
		},
	)
	return cmd
}

func readImageFile(path string) (imagehost.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imagehost.File{}, err
	}
	return imagehost.File{
		Name:     filepath.Base(path),
		Mimetype: http.DetectContentType(data),
		Data:     data,
	}, nil
}
