package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func puzzlePath(date, view string) string {
	if date == "" {
		date = "today"
	}
	return "/api/v1/puzzles/" + url.PathEscape(date) + "/" + view
}

func newRankCmd() *cobra.Command {
	var date string
	var score, timeSeconds int

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show the rank a result would have",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RankResult

			path := withQuery(puzzlePath(date, "rank"), url.Values{
				"score":        {strconv.Itoa(score)},
				"time_seconds": {strconv.Itoa(timeSeconds)},
			})
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Puzzle date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&score, "score", 0, "Points scored (required)")
	cmd.Flags().IntVar(&timeSeconds, "time", 0, "Solve time in seconds (required)")
	_ = cmd.MarkFlagRequired("score")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func newPercentileCmd() *cobra.Command {
	var date string
	var score int

	cmd := &cobra.Command{
		Use:   "percentile",
		Short: "Show the share of players a score beats",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PercentileResult

			path := withQuery(puzzlePath(date, "percentile"), url.Values{
				"score": {strconv.Itoa(score)},
			})
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Puzzle date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&score, "score", 0, "Points scored (required)")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	var date string
	var from, pageSize int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show a page of a day's leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Leaderboard

			params := url.Values{"from": {strconv.Itoa(from)}}
			if pageSize > 0 {
				params.Set("page_size", strconv.Itoa(pageSize))
			}
			if err := client.Get(withQuery(puzzlePath(date, "leaderboard"), params), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Puzzle date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&from, "from", 0, "Position to start from")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Entries per page (default server-chosen)")

	return cmd
}
