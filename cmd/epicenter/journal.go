package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newJournalCmd(root *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journaled documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, cmd, root)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			records, err := a.Records(ctx, limit)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, rec := range records {
				if err := enc.Encode(rec); err != nil {
					return errors.Wrap(err, "encode record")
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of records")
	return cmd
}
