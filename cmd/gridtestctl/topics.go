package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics [id]",
	Short: "List catalog topics or show one topic's counts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			params, err := c.Topic(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(out, params)
		}

		topics, err := c.Topics(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, topics)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tName\tQuestions\tGroups")
		fmt.Fprintln(w, "--\t----\t---------\t------")
		for _, t := range topics {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", t.ID, t.Name, t.QuestionsNumber, t.GroupsNumber)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
