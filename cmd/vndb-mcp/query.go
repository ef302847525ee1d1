package main

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pario-ai/vndb-mcp/pkg/query"
)

func newSearchCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search VNDB once and print the JSON result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			bag := map[string]any{"query": args[0]}
			if cmd.Flags().Changed("limit") {
				bag["limit"] = limit
			}
			return printResult(cmd, a.queries.Search(cmd.Context(), bag))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results (1-50)")
	return cmd
}

func newDetailsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "details <id>",
		Short: "Fetch one visual novel by ID (e.g. v17) and print the JSON result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return printResult(cmd, a.queries.GetDetails(cmd.Context(), map[string]any{"id": args[0]}))
		},
	}
}

// printResult writes the result envelope to stdout and turns a failed
// result into a non-zero exit.
func printResult(cmd *cobra.Command, res query.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Envelope()); err != nil {
		return err
	}
	if !res.OK() {
		return errors.Newf("%s: %s", res.Err.Kind, res.Err.Message)
	}
	return nil
}
