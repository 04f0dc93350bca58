package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gitlab.com/justnurik/luxq/pkg/api"
)

func newStatusCmd(g *globals) *cobra.Command {
	var (
		addr  string
		watch uint64
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the kernel and queue state of a running pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewStatusClient(g.logger, "http://"+addr)

			if cmd.Flags().Changed("watch") {
				return client.Watch(cmd.Context(), watch, func(e *api.SampleEvent) bool {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d lx\n", e.Seq, e.Lux)
					return true
				})
			}

			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "127.0.0.1:7070", "status API address")
	flags.Uint64Var(&watch, "watch", 0, "stream rendered samples, at most this many (0 streams until interrupted)")

	return cmd
}

func printStatus(w io.Writer, s *api.Status) {
	fmt.Fprintf(w, "boot %s  tick %d  heap %d/%d  queue %s %d/%d\n",
		s.BootID, s.Kernel.Tick, s.Kernel.HeapUsed, s.Kernel.HeapSize,
		s.Queue.Name, s.Queue.Len, s.Queue.Cap)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tPRIORITY\tSTATE\tSWITCHES")
	for _, t := range s.Kernel.Tasks {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", t.Name, t.Priority, t.State, t.Switches)
	}
	_ = tw.Flush()
}
