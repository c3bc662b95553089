package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

func newQuestionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "questions",
		Aliases: []string{"q"},
		Short:   "List, create and inspect questions",
	}
	cmd.AddCommand(newQuestionsListCmd(a), newQuestionsAddCmd(a), newQuestionsResultsCmd(a))
	return cmd
}

func newQuestionsListCmd(a *app) *cobra.Command {
	var input ports.ListQuestionsInput

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List questions with the same filters as the web index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer repos.Close()

			page, err := svc.Query.ListQuestions(cmd.Context(), input, a.cfg.Now())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPUBLISHED\tTEXT")
			for _, q := range page.Questions {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", q.ID, q.PublishTime.In(a.cfg.Location).Format(time.RFC3339), q.Text)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d of %d questions\n", len(page.Questions), page.Count)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.Show, "show", "", `"future" includes unpublished questions`)
	f.StringVar(&input.Query, "q", "", "case-insensitive text search")
	f.StringVar(&input.Start, "start", "", "earliest publish date (YYYY-MM-DD)")
	f.StringVar(&input.End, "end", "", "latest publish date (YYYY-MM-DD)")
	f.StringVar(&input.Order, "order", "", `"oldest" sorts ascending`)
	f.IntVar(&input.Limit, "limit", 0, "maximum questions shown")
	return cmd
}

func newQuestionsAddCmd(a *app) *cobra.Command {
	var (
		text        string
		publishTime string
		choices     []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ports.CreateQuestionInput{Text: text, Choices: choices}
			if publishTime != "" {
				t, err := time.Parse(time.RFC3339, publishTime)
				if err != nil {
					return fmt.Errorf("invalid --publish-time: %w", err)
				}
				input.PublishTime = &t
			}

			repos, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer repos.Close()

			q, err := svc.Questions.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, q.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&text, "text", "", "question text")
	f.StringVar(&publishTime, "publish-time", "", "RFC 3339 publish time, defaults to now")
	f.StringArrayVar(&choices, "choice", nil, "choice text, repeatable")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newQuestionsResultsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "results <question-id>",
		Short: "Show vote counts for a published question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer repos.Close()

			res, err := svc.Questions.Results(cmd.Context(), args[0], a.cfg.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, res.Question.Text)
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, c := range res.Choices {
				fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", c.Text, c.Votes, c.Percentage)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d votes\n", res.TotalVotes)
			return nil
		},
	}
}
