package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sarchlab/addrsim/datarecording"
	"github.com/sarchlab/addrsim/mem/trace"
)

func newReportCmd() *cobra.Command {
	var (
		table  string
		limit  int
		offset int
		where  string
	)

	reportCmd := &cobra.Command{
		Use:   "report RECORDING",
		Short: "Print the entries of a recording as JSON lines.",
		Long: `Print the entries of a recording made with --record as JSON ` +
			`lines, in the order they were recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			reader := datarecording.NewReader(args[0])
			defer reader.Close()

			trace.MapTables(reader)

			if !slices.Contains(reader.ListTables(), table) {
				return fmt.Errorf("unknown table %q, expecting one of %v",
					table, reader.ListTables())
			}

			entries, total, err := reader.Query(cmd.Context(), table,
				datarecording.QueryParams{
					Where:   where,
					OrderBy: "Seq",
					Limit:   limit,
					Offset:  offset,
				})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range entries {
				err = enc.Encode(e)
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d entries\n",
				len(entries), total)

			return nil
		},
	}

	reportCmd.Flags().StringVar(&table, "table", trace.TableCacheAccesses,
		"Table to print.")
	reportCmd.Flags().IntVar(&limit, "limit", 0,
		"Maximum number of entries, 0 for all.")
	reportCmd.Flags().IntVar(&offset, "offset", 0,
		"Number of entries to skip.")
	reportCmd.Flags().StringVar(&where, "where", "",
		"SQL condition the entries must satisfy, e.g. \"Hit = 0\".")

	return reportCmd
}
