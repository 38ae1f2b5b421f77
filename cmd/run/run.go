package run

import (
	"fmt"
	"time"

	"github.com/convoy-cloud/convoy/pkg/client"
	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/spf13/cobra"
)

var (
	devices     []string
	commands    []string
	batchSize   int
	ratePerHour int
	watch       bool
)

// Cmd submits a job to a running convoy instance.
var Cmd = &cobra.Command{
	Use:     "run",
	Short:   "Submit a batch automation job",
	Long:    "This command submits a batch automation job to a running convoy instance",
	Example: `convoy run --device <id> --device <id> --command "show version" --batch-size 10`,
	RunE:    run,
}

func init() {
	Cmd.Flags().StringArrayVar(&devices, "device", nil, "device id to target (repeatable)")
	Cmd.Flags().StringArrayVar(&commands, "command", nil, "command to execute (repeatable, ordered)")
	Cmd.Flags().IntVar(&batchSize, "batch-size", 10, "devices per batch (minimum 2)")
	Cmd.Flags().IntVar(&ratePerHour, "rate-limit", 0, "maximum devices processed per hour (0 disables)")
	Cmd.Flags().BoolVar(&watch, "watch", false, "poll the job until it finishes")
}

func run(cmd *cobra.Command, args []string) error {
	resp, err := client.Client().SubmitJob(devices, commands, batchSize, ratePerHour)
	if err != nil {
		return err
	}

	fmt.Printf("job %v submitted (%v batches)\n", resp.JobID, resp.TotalBatches)

	if !watch {
		return nil
	}

	for {
		view, err := client.Client().JobStatus(resp.JobID.String())
		if err != nil {
			return err
		}

		fmt.Printf("%v %.1f%% (%d/%d commands, %d/%d devices)\n",
			view.Status,
			view.OverallPercent,
			view.CompletedCommands,
			view.TotalCommands,
			view.CompletedDevices,
			view.TotalDevices)

		if view.Status.Terminal() {
			log.Info("job finished", "job_id", resp.JobID, "status", view.Status)
			return nil
		}

		time.Sleep(2 * time.Second)
	}
}
