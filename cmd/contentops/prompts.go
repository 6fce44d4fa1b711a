package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/joeydtaylor/contentops/pkg/core"
	"github.com/joeydtaylor/contentops/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newPromptsCmd(c *cli) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage the prompt library offline",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite path (default: the manifest's store.path)")

	open := func(cmd *cobra.Command) (*store.Store, error) {
		path := dbPath
		if path == "" {
			mp := c.manifest
			if mp == "" {
				mp = core.ManifestPath()
			}
			man, err := core.LoadConfig(mp)
			if err != nil {
				return nil, fmt.Errorf("load manifest: %w", err)
			}
			path = man.Store.Path
		}
		return store.Open(cmd.Context(), path)
	}

	importCmd := &cobra.Command{
		Use:   "import <prompts.yaml>",
		Short: "Create or update prompts from a YAML list",
		Long: `Each entry needs a name and a body; category is optional. Prompts
are matched by name, so re-importing a file updates it in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			var list []store.Prompt
			if err := yaml.Unmarshal(raw, &list); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			var created, updated int
			for i, p := range list {
				isNew, err := st.UpsertPrompt(cmd.Context(), p)
				if err != nil {
					return fmt.Errorf("prompt %d (%q): %w", i, p.Name, err)
				}
				if isNew {
					created++
				} else {
					updated++
				}
			}
			c.log.Info("prompts imported", zap.Int("created", created), zap.Int("updated", updated))
			fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d updated\n", created, updated)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the prompt library as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			list, err := st.ListPrompts(cmd.Context())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(list); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			list, err := st.ListPrompts(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tUPDATED")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Category, p.UpdatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(importCmd, exportCmd, listCmd)
	return cmd
}
