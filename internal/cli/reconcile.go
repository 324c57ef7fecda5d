package cli

import (
	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Attach the locally remembered score to the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := cfg.LoadLocalScore()
			if err != nil {
				return err
			}

			req := map[string]any{}
			if local != nil {
				req["local_score"] = local
			}
			var result Reconciliation

			if err := client.Post("/api/v1/reconcile", req, &result); err != nil {
				return err
			}
			if err := settleLocalScore(cmd.ErrOrStderr(), local, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
