package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored topic as a static test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		test, err := newClient().GetTest(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), test)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Assemble and persist a new mixed test",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		test, err := newClient().Generate(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), test)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n  topics: %s\n  questions: %d\n  groups: %d\n",
			test.Topic, test.ID, test.Description, test.QuestionsCount(), test.GroupsCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(generateCmd)
}
