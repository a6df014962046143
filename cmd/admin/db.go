package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ereea.space/internal/persistence/indexdb"
)

func withReader(fn func(r *indexdb.Reader) error) error {
	r, err := indexdb.OpenReader(indexPath())
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(func(r *indexdb.Reader) error {
				runs, err := r.Runs(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return outputJSON(cmd.OutOrStdout(), runs)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RUN\tSEED\tSTARTED\tEND TICK\tCOMPLETE TICK\tEXPLORED\tROBOTS")
				for _, x := range runs {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
						x.RunID, x.Seed, x.StartedAt, optInt(x.EndTick), optInt(x.CompleteTick), optPct(x.Exploration), optInt(x.Robots))
				}
				return tw.Flush()
			})
		},
	}
}

func newSpawnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawns <run-id>",
		Short: "List robots the station built during a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(func(r *indexdb.Reader) error {
				rows, err := r.Spawns(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return outputJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TICK\tROBOT\tTYPE")
				for _, x := range rows {
					fmt.Fprintf(tw, "%d\t%d\t%s\n", x.Tick, x.RobotID, x.RobotType)
				}
				return tw.Flush()
			})
		},
	}
}

func newMergesCmd() *cobra.Command {
	var robotID uint64
	cmd := &cobra.Command{
		Use:   "merges <run-id>",
		Short: "List knowledge exchanges at the station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(func(r *indexdb.Reader) error {
				rows, err := r.Merges(cmd.Context(), args[0], robotID)
				if err != nil {
					return err
				}
				if asJSON {
					return outputJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TICK\tROBOT\tADOPTED\tCONFLICTS\tFORCED\tMINERALS\tSCIENCE\tCELLS")
				for _, x := range rows {
					fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%t\t%d\t%d\t%d\n",
						x.Tick, x.RobotID, x.Adopted, x.Conflicts, x.Forced, x.Minerals, x.ScientificData, x.EnergyCells)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().Uint64Var(&robotID, "robot", 0, "only this robot (0 = all)")
	return cmd
}

func newSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots <run-id>",
		Short: "List archived snapshots of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(func(r *indexdb.Reader) error {
				rows, err := r.Snapshots(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return outputJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TICK\tMISSION\tEXPLORED\tROBOTS\tPATH")
				for _, x := range rows {
					fmt.Fprintf(tw, "%d\t%s\t%.1f%%\t%d\t%s\n", x.Tick, x.Mission, x.Exploration, x.Robots, x.Path)
				}
				return tw.Flush()
			})
		},
	}
}

func optInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func optPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + "%"
}
