package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dgallion1/lazynotes/internal/markup"
	"github.com/dgallion1/lazynotes/internal/toc"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render FILE",
		Short: "Render a markdown note to sanitized HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			start := time.Now()
			out, err := markup.New(markup.Options{IDPrefix: opts.idPrefix}).Render(src)
			if err != nil {
				return err
			}
			opts.log.Debug("rendered",
				"file", args[0],
				"in", humanize.Bytes(uint64(len(src))),
				"out", humanize.Bytes(uint64(len(out))),
				"took", time.Since(start),
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newTOCCmd(opts *rootOptions) *cobra.Command {
	var fast, tree, list bool
	cmd := &cobra.Command{
		Use:   "toc FILE",
		Short: "Print the headings of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.loadHTML(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case fast:
				ids, err := toc.HeadingIDs(doc)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				return writeJSON(out, ids)
			case tree:
				return writeJSON(out, toc.Nest(toc.Headings(doc)))
			case list:
				_, err := fmt.Fprintln(out, toc.RenderList(toc.Nest(toc.Headings(doc))))
				return err
			default:
				headings := toc.Headings(doc)
				opts.log.Debug("extracted headings", "file", args[0], "count", humanize.Comma(int64(len(headings))))
				return writeJSON(out, headings)
			}
		},
	}
	cmd.Flags().BoolVar(&fast, "fast", false, "use the regex fast path (level and id only)")
	cmd.Flags().BoolVar(&tree, "tree", false, "nest headings by level")
	cmd.Flags().BoolVar(&list, "html", false, "print the nested headings as an HTML list")
	cmd.MarkFlagsMutuallyExclusive("fast", "tree", "html")
	return cmd
}

func newNodesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes FILE",
		Short: "Print the heading and paragraph blocks of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.loadHTML(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), toc.Nodes(doc))
		},
	}
}
