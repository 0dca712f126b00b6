package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local scene index",
}

var catalogIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the configured scene directories into the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ix, err := catalog.OpenIndex(cfg.Catalog.IndexPath)
		if err != nil {
			return err
		}
		defer ix.Close()

		if err := ix.Migrate(ctx); err != nil {
			return err
		}

		dirs := map[string]string{
			catalog.KindLandsat:  cfg.Catalog.LandsatDir,
			catalog.KindSentinel: cfg.Catalog.SentinelDir,
			catalog.KindDEM:      cfg.Catalog.DEMDir,
		}
		for kind, dir := range dirs {
			if dir == "" {
				zap.L().Info("catalog: no directory configured", zap.String("kind", kind))
				continue
			}
			n, err := catalog.Scan(ctx, ix, kind, dir)
			if err != nil {
				return err
			}
			zap.L().Info("catalog: directory indexed",
				zap.String("kind", kind),
				zap.String("dir", dir),
				zap.Int("scenes", n))
		}
		return nil
	},
}

var catalogStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexed scene counts per kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ix, err := catalog.OpenIndex(cfg.Catalog.IndexPath)
		if err != nil {
			return err
		}
		defer ix.Close()

		for _, kind := range []string{catalog.KindLandsat, catalog.KindSentinel, catalog.KindDEM} {
			n, err := ix.Count(ctx, kind)
			if err != nil {
				return err
			}
			cmd.Printf("%-10s %d\n", kind, n)
		}
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogIndexCmd, catalogStatusCmd)
	rootCmd.AddCommand(catalogCmd)
}
