package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/pages"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCmd(c *cli) *cobra.Command {
	var (
		document bool
		strict   bool
		title    string
	)
	cmd := &cobra.Command{
		Use:   "render <tree.json|->",
		Short: "Render an a2ui tree to HTML",
		Long: `Reads a JSON component tree, reports schema diagnostics on stderr
and writes the rendered markup to stdout. Actions are listed but not run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			root, err := a2ui.Parse(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			diags := a2ui.Validate(root)
			for _, d := range diags {
				fmt.Fprintln(cmd.ErrOrStderr(), d.String())
			}
			if strict && len(diags) > 0 {
				return fmt.Errorf("%d diagnostics", len(diags))
			}

			r := a2ui.NewRenderer(a2ui.Builtins(), a2ui.WithLogger(c.log))
			v := r.Render(root, nil)
			for _, b := range v.Bindings() {
				c.log.Debug("binding", zap.String("id", b.ID), zap.String("action", b.Action.Name))
			}
			out := cmd.OutOrStdout()
			if document {
				return pages.Site{Name: title}.Document(out, title, v, "")
			}
			_, err = io.WriteString(out, string(v.HTML))
			return err
		},
	}
	cmd.Flags().BoolVar(&document, "document", false, "wrap the markup in a full HTML document")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the tree has diagnostics")
	cmd.Flags().StringVar(&title, "title", "a2ui", "document title")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
