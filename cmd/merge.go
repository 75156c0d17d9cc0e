package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/eda"
	"github.com/cdmx-insight/incident-etl/internal/frame"
)

var (
	mergeBase   string
	mergeNew    string
	mergeOutput string
	mergeKeys   []string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Append a cleaned batch to the historical base",
	Long: `Aligns the historical base and a cleaned batch to the union of their
columns, appends the new rows, and optionally deduplicates by key columns
(keeping the newest occurrence). Without --output the base file is
overwritten in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		newClean, err := frame.ReadCSV(mergeNew)
		if err != nil {
			return err
		}

		result, err := eda.AppendToBase(mergeBase, newClean, mergeOutput, mergeKeys)
		if err != nil {
			return err
		}

		zap.L().Info("merge: base updated",
			zap.String("output", result.OutputPath),
			zap.Int("rows_historical", result.Merge.RowsHistorical),
			zap.Int("rows_new", result.Merge.RowsNew),
			zap.Int("rows_total", result.Merge.RowsAfterDedup),
			zap.Int("duplicates_removed", result.Merge.DuplicatesRemoved),
		)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeBase, "base", "", "historical base CSV path (required)")
	mergeCmd.Flags().StringVar(&mergeNew, "new", "", "cleaned batch CSV path (required)")
	mergeCmd.Flags().StringVar(&mergeOutput, "output", "", "combined output path (default: overwrite base)")
	mergeCmd.Flags().StringSliceVar(&mergeKeys, "keys", nil, "key columns for keep-last deduplication")
	_ = mergeCmd.MarkFlagRequired("base")
	_ = mergeCmd.MarkFlagRequired("new")
	rootCmd.AddCommand(mergeCmd)
}
