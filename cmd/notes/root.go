package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/lazynotes/internal/markup"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose  bool
	idPrefix string
	log      *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "notes",
		Short:         "Render lazynotes markdown and inspect its headings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVar(&opts.idPrefix, "id-prefix", markup.DefaultIDPrefix, `prefix for heading ids ("-" for none)`)

	cmd.AddCommand(
		newRenderCmd(opts),
		newTOCCmd(opts),
		newNodesCmd(opts),
		newFetchCmd(opts),
	)
	return cmd
}

// loadHTML returns the HTML for file: .html files are read as is, anything
// else is rendered as markdown.
func (o *rootOptions) loadHTML(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	if ext := strings.ToLower(filepath.Ext(file)); ext == ".html" || ext == ".htm" {
		return string(data), nil
	}
	return markup.New(markup.Options{IDPrefix: o.idPrefix}).Render(data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
