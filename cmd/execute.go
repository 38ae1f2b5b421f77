package cmd

import (
	"github.com/convoy-cloud/convoy/cmd/run"
	"github.com/convoy-cloud/convoy/cmd/start"
	"github.com/convoy-cloud/convoy/cmd/stop"
	"github.com/spf13/cobra"
)

var cmds = []*cobra.Command{
	start.Cmd,
	run.Cmd,
	stop.Cmd,
}

// Execute builds the command tree and executes commands.
func Execute() error {
	command := &cobra.Command{
		Use: "convoy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}

	for _, c := range cmds {
		command.AddCommand(c)
	}

	return command.Execute()
}
