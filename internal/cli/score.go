package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score submission commands",
	}

	cmd.AddCommand(newScoreSubmitCmd())
	cmd.AddCommand(newScoreMeCmd())
	cmd.AddCommand(newScoreClaimCmd())

	return cmd
}

func newScoreSubmitCmd() *cobra.Command {
	var local LocalScore

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a completed puzzle",
		Long: `Submit a completed puzzle.

Without a session the score is stored anonymously and remembered locally,
so that the next "player login" can attach it to the account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			anonymous := !client.HasToken()
			if anonymous {
				// Remember the score before sending it, so a lost response
				// can still be matched by reference on the next login
				local.ClientRef = uuid.NewString()
				if err := cfg.SaveLocalScore(&local); err != nil {
					return fmt.Errorf("failed to save local score: %w", err)
				}
			}

			req := map[string]any{
				"score":              local.Score,
				"time_seconds":       local.TimeSeconds,
				"mistakes":           local.Mistakes,
				"correct_placements": local.CorrectPlacements,
			}
			if local.Date != "" {
				req["date"] = local.Date
			}
			if local.ClientRef != "" {
				req["client_ref"] = local.ClientRef
			}
			var result SubmitResult

			if err := client.Post("/api/v1/scores", req, &result); err != nil {
				// A rejected submission was never stored. Anything else may
				// have been, so the local copy is kept.
				var apiErr *APIError
				if anonymous && errors.As(err, &apiErr) {
					_ = cfg.ClearLocalScore()
				}
				return err
			}

			if anonymous {
				local.ScoreID = result.ID
				local.Date = result.Score.Date
				if err := cfg.SaveLocalScore(&local); err != nil {
					return fmt.Errorf("failed to save local score: %w", err)
				}
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&local.Score, "score", 0, "Points scored (required)")
	cmd.Flags().IntVar(&local.TimeSeconds, "time", 0, "Solve time in seconds (required)")
	cmd.Flags().IntVar(&local.Mistakes, "mistakes", 0, "Number of mistakes")
	cmd.Flags().IntVar(&local.CorrectPlacements, "placements", 0, "Number of correct placements")
	cmd.Flags().StringVar(&local.Date, "date", "", "Puzzle date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("score")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func newScoreMeCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show your score for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Score

			path := withQuery("/api/v1/scores/me", url.Values{"date": {date}})
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Puzzle date YYYY-MM-DD (default today)")

	return cmd
}

func newScoreClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <score-id>",
		Short: "Attach an anonymous score to your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ClaimResult

			if err := client.Post("/api/v1/scores/"+url.PathEscape(args[0])+"/claim", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
