package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terra-clan/grid-test-engine/pkg/client"
)

var generatedCmd = &cobra.Command{
	Use:   "generated [id]",
	Short: "List generated tests or print one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			test, err := c.GetGenerated(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(out, test)
		}

		tests, err := c.ListGenerated(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, tests)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTitle\tQuestions\tGroups\tCreated")
		fmt.Fprintln(w, "--\t-----\t---------\t------\t-------")
		for _, t := range tests {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				t.ID, t.Topic, t.Questions, t.Groups, t.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow newly generated tests as they are created",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		err := newClient().Stream(ctx, func(e client.FeedEvent) error {
			if asJSON {
				return printJSON(out, e)
			}
			if e.Test == nil {
				fmt.Fprintf(out, "[%s]\n", e.Type)
				return nil
			}
			fmt.Fprintf(out, "[%s] %s %s (%d questions, %d groups)\n",
				e.Type, e.Test.ID, e.Test.Description, e.Test.Questions, e.Test.Groups)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(generatedCmd)
	rootCmd.AddCommand(watchCmd)
}
