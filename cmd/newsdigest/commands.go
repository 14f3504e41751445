package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"newsdigest/internal/domain"
)

func newSendCommand(opts *options) *cobra.Command {
	var categories []string
	cmd := &cobra.Command{
		Use:   "send [recipient...]",
		Short: "Build the digest and email it",
		Long:  `Builds the digest and sends it. Recipients given as arguments replace delivery.recipients from the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Send(cmd.Context(), categories, args)
			if err != nil {
				return err
			}
			switch result.Status {
			case domain.RunSkipped:
				fmt.Fprintf(cmd.OutOrStdout(), "Digest skipped: %s\n", result.Reason)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Digest sent: %d items, id %s\n", result.ItemCount, result.DeliveryID)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "categories to include (default: all)")
	return cmd
}

func newPreviewCommand(opts *options) *cobra.Command {
	var (
		categories []string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Build the digest and write the email HTML without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			w, closeOut, err := openOutput(cmd.OutOrStdout(), out)
			if err != nil {
				return err
			}
			defer closeOut()

			subject, err := a.Preview(cmd.Context(), categories, w)
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s (subject: %q)\n", out, subject)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "categories to include (default: all)")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func newCollectCommand(opts *options) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Build the bookmark context from a bookmark export",
		Long:  `Reads a JSON array of bookmarks {text, author, url, timestamp} and writes the bookmark context artifact.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			r := io.Reader(cmd.InOrStdin())
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("failed to open bookmark export %s: %w", input, err)
				}
				defer f.Close()
				r = f
			}

			bc, err := a.Collect(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bookmark context updated: %d bookmarks, %d keywords\n", bc.BookmarkCount, len(bc.Keywords))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "bookmarks.json", "bookmark export file, - for stdin")
	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the preview API and send the digest on schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}

// openOutput возвращает stdout для пустого пути и "-", иначе создает файл.
func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
