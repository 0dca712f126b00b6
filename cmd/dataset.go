package main

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/dataset"
)

var (
	datasetInput string
	datasetCSV   string
	datasetXLSX  string
	datasetStore bool
	datasetInfo  bool
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Load the exported stack and tabulate the valid pixels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in := datasetInput
		if in == "" {
			in = cfg.RasterPath()
		}

		r, info, err := dataset.Load(in, cfg.BandNames)
		if err != nil {
			return err
		}
		table := dataset.Tabulate(r, info)
		zap.L().Info("dataset loaded",
			zap.String("path", in),
			zap.String("band_reconciliation", info.Reconciliation.String()),
			zap.Float64("coverage_pct", info.CoveragePct))

		if datasetInfo {
			if err := dataset.WriteInfo(dataset.InfoPath(in), info); err != nil {
				return err
			}
		}

		if datasetCSV != "" {
			f, err := os.Create(datasetCSV)
			if err != nil {
				return eris.Wrapf(err, "create %s", datasetCSV)
			}
			defer f.Close()
			if err := dataset.WriteCSV(f, table); err != nil {
				return err
			}
			zap.L().Info("csv written", zap.String("path", datasetCSV), zap.Int("rows", len(table.Rows)))
		}

		if datasetXLSX != "" {
			if err := dataset.WriteXLSX(datasetXLSX, dataset.Summarize(r)); err != nil {
				return err
			}
			zap.L().Info("summary workbook written", zap.String("path", datasetXLSX))
		}

		if datasetStore {
			pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
			if err != nil {
				return eris.Wrap(err, "connect postgres")
			}
			defer pool.Close()

			store := dataset.NewPGStore(pool, cfg.Store.Table)
			if err := store.EnsureTable(ctx, table.Names); err != nil {
				return err
			}
			if _, err := store.Insert(ctx, table); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	datasetCmd.Flags().StringVar(&datasetInput, "input", "", "feature stack to load (default from config)")
	datasetCmd.Flags().StringVar(&datasetCSV, "csv", "", "write the pixel table as CSV to this path")
	datasetCmd.Flags().StringVar(&datasetXLSX, "xlsx", "", "write the band summary workbook to this path")
	datasetCmd.Flags().BoolVar(&datasetStore, "store", false, "bulk-insert the pixel table into Postgres")
	datasetCmd.Flags().BoolVar(&datasetInfo, "info", true, "write the .info.yaml sidecar")
	rootCmd.AddCommand(datasetCmd)
}
