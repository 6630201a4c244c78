package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/irrigo/irrigo/internal/app"
	"github.com/irrigo/irrigo/jobs"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	trigger := &cobra.Command{
		Use:       "trigger <name>",
		Short:     "Enqueue a periodic job now (" + strings.Join(jobs.Triggerable, ", ") + ")",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), validJobName),
		ValidArgs: jobs.Triggerable,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer client.Close()

			info, err := client.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer inspector.Close()
			for _, queue := range []string{jobs.QueueDefault, jobs.QueueLow} {
				info, err := inspector.GetQueueInfo(queue)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s unavailable: %v\n", queue, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
					queue, info.Pending, info.Active, info.Scheduled, info.Retry, info.Archived)
			}
			return nil
		},
	}

	cmd.AddCommand(trigger, status)
	return cmd
}

func validJobName(_ *cobra.Command, args []string) error {
	if !slices.Contains(jobs.Triggerable, args[0]) {
		return fmt.Errorf("unknown job %q, expected one of %s", args[0], strings.Join(jobs.Triggerable, ", "))
	}
	return nil
}
