package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/lazynotes/internal/client"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var instance, username, sessionFile string
	var showCSS, showBody bool
	cmd := &cobra.Command{
		Use:   "fetch PATH",
		Short: "Fetch a note from a lazynotes server and print its outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionFile == "" {
				dir, err := os.UserConfigDir()
				if err != nil {
					return err
				}
				sessionFile = filepath.Join(dir, "lazynotes", "session.json")
			}
			store := client.FileSessionStore{Path: sessionFile}
			if instance == "" {
				sess, err := store.Load()
				if err != nil {
					return err
				}
				if sess == nil {
					return errors.New("--instance is required until you have logged in")
				}
				instance = sess.Instance
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c := client.New(instance, store)

			if username != "" {
				password := os.Getenv("LN_PASSWORD")
				if password == "" {
					return errors.New("set LN_PASSWORD to log in")
				}
				if _, err := c.Login(ctx, username, password); err != nil {
					return fmt.Errorf("login: %w", err)
				}
				opts.log.Info("logged in", "instance", instance, "username", username)
			}

			out := cmd.OutOrStdout()
			if showCSS {
				css, err := c.GetCSS(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, css)
				return err
			}

			view, err := c.GetNote(ctx, args[0])
			if errors.Is(err, client.ErrUnauthorized) {
				return errors.New("session expired, log in again with --user")
			}
			if err != nil {
				return err
			}
			opts.log.Debug("fetched note", "path", args[0], "size", humanize.Bytes(uint64(len(view.Note))))

			if showBody {
				_, err = fmt.Fprintln(out, view.Note)
				return err
			}
			return printOutline(out, view)
		},
	}
	cmd.Flags().StringVar(&instance, "instance", "", "server URL, e.g. http://localhost:3000")
	cmd.Flags().StringVar(&username, "user", "", "log in as this user first (password from LN_PASSWORD)")
	cmd.Flags().StringVar(&sessionFile, "session-file", "", "where to keep the session (default in the user config dir)")
	cmd.Flags().BoolVar(&showCSS, "css", false, "print the instance stylesheet instead of a note")
	cmd.Flags().BoolVar(&showBody, "body", false, "print the note HTML instead of its outline")
	return cmd
}

// printOutline writes headings indented by level followed by block counts.
func printOutline(w io.Writer, view *client.View) error {
	for _, h := range view.TOC {
		text := ""
		if h.Text != nil {
			text = strings.TrimSpace(*h.Text)
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", max(h.Level-1, 0)), text); err != nil {
			return err
		}
	}
	var paragraphs int
	for _, n := range view.Nodes {
		if n.Tag == "p" {
			paragraphs++
		}
	}
	_, err := fmt.Fprintf(w, "\n%s headings, %s paragraphs, %s\n",
		humanize.Comma(int64(len(view.TOC))),
		humanize.Comma(int64(paragraphs)),
		humanize.Bytes(uint64(len(view.Note))),
	)
	return err
}
