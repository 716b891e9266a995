package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"packshot/internal/ipc"
	"packshot/internal/runner"
)

func newDaemonControlCommands(ctx *commandContext) []*cobra.Command {
	var startRetailers []string
	startCmd := &cobra.Command{
		Use:   "start <input.csv>",
		Short: "Start a retrieval run on the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunStart(inputPath, startRetailers)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Started {
					if resp.Message != "" {
						return errors.New(resp.Message)
					}
					return errors.New("daemon did not start the run")
				}
				fmt.Fprintf(stdout, "Run %s started\n", resp.RunID)
				fmt.Fprintln(stdout, "Follow progress with `packshot watch`")
				return nil
			})
		},
	}
	startCmd.Flags().StringSliceVarP(&startRetailers, "retailer", "r", []string{"all"}, "Retailers to retrieve for (amazon, sobeys, instacart, or all)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Cancel the active run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunStop()
				if err != nil {
					return err
				}
				if resp.Stopping {
					fmt.Fprintln(cmd.OutOrStdout(), "Stop requested; the run will finish its in-flight writes")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "No active run")
				}
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatus(resp))
				return nil
			})
		},
	}

	shutdownCmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the daemon process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Shutdown()
				if err != nil {
					return err
				}
				if resp.ShuttingDown {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon shutting down")
				}
				return nil
			})
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow run events from the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				return watchEvents(cmd, client)
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd, shutdownCmd, watchCmd}
}

func renderStatus(resp *ipc.StatusResponse) string {
	status := resp.Status
	run := status.Run
	rows := [][]string{
		{"Daemon running", yesNo(status.Running)},
		{"PID", strconv.Itoa(status.PID)},
		{"Lock file", status.LockFilePath},
		{"Run ID", run.RunID},
		{"Run state", string(run.State)},
		{"Run active", yesNo(run.Active)},
		{"Items", fmt.Sprintf("%d/%d", run.Progress.CompletedItems, run.Progress.TotalItems)},
		{"Files written", strconv.Itoa(run.Progress.FilesWritten)},
		{"Failures", strconv.Itoa(run.Progress.Failures)},
	}
	return renderFieldTable(rows)
}

func watchEvents(cmd *cobra.Command, client *ipc.Client) error {
	out := cmd.OutOrStdout()
	var since uint64
	for {
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
		resp, err := client.EventTail(ipc.EventTailRequest{
			Since:      since,
			Limit:      200,
			Follow:     true,
			WaitMillis: 5000,
		})
		if err != nil {
			return err
		}
		for _, evt := range resp.Events {
			switch {
			case evt.Item != nil:
				printItem(out, evt.Item)
			case evt.Progress != nil:
				fmt.Fprintf(out, "%s: %d/%d items, %d files written\n",
					evt.Progress.Stage, evt.Progress.CompletedItems, evt.Progress.TotalItems, evt.Progress.FilesWritten)
			case evt.Log != nil:
				fmt.Fprintf(out, "%s: %s\n", evt.Log.Level, evt.Log.Message)
			case evt.Summary != nil:
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSummary(evt.Summary))
				if evt.Summary.Status != string(runner.StateSucceeded) {
					return fmt.Errorf("run finished with status %s", evt.Summary.Status)
				}
				return nil
			}
		}
		since = resp.Next
	}
}
