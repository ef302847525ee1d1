package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pario-ai/vndb-mcp/pkg/config"
	"github.com/pario-ai/vndb-mcp/pkg/notes"
)

func newNotesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes stored in notes.db_path",
	}

	openStore := func() (notes.Store, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		if cfg.Notes.DBPath == "" {
			return nil, errors.New("notes.db_path is not set; notes only live in memory while serving")
		}
		return notes.NewSQLite(cfg.Notes.DBPath)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := store.List()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notes found.")
				return nil
			}
			for _, n := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", n.Name, n.Content)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d notes.\n", n)
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}
