package stop

import (
	"fmt"

	"github.com/convoy-cloud/convoy/pkg/client"
	"github.com/spf13/cobra"
)

// Cmd requests a cooperative stop of a running job.
var Cmd = &cobra.Command{
	Use:     "stop <job-id>",
	Short:   "Stop a running automation job",
	Long:    "This command requests a cooperative stop of a running job; in-flight commands finish, remaining work stays pending",
	Example: "convoy stop 4f7c2a9e-1d3b-4c58-9f0a-8e2d6b5c1a47",
	Args:    cobra.ExactArgs(1),
	RunE:    stop,
}

func stop(cmd *cobra.Command, args []string) error {
	if err := client.Client().StopJob(args[0]); err != nil {
		return err
	}

	fmt.Printf("stop requested for job %v\n", args[0])

	return nil
}
