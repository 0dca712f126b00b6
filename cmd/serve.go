package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/dataset"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tabulated dataset over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r, info, err := dataset.Load(cfg.RasterPath(), cfg.BandNames)
		if err != nil {
			return err
		}
		table := dataset.Tabulate(r, info)
		mux := buildMux(info, table)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownServer(srv, 10*time.Second)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("rows", len(table.Rows)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownServer drains in-flight requests on a fresh context; the signal
// context is already cancelled by the time shutdown starts, so reusing it
// would skip the drain window entirely.
func shutdownServer(srv *http.Server, timeout time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
	}
}

func buildMux(info *dataset.LoadInfo, table *dataset.PixelTable) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /dataset/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})
	mux.HandleFunc("GET /dataset/rows", func(w http.ResponseWriter, r *http.Request) {
		rows := table.Rows
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			if limit < len(rows) {
				rows = rows[:limit]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rowsResponse(table.Names, rows))
	})
	return mux
}

type rowPayload struct {
	Row    int                `json:"row"`
	Col    int                `json:"col"`
	Lon    float64            `json:"lon"`
	Lat    float64            `json:"lat"`
	Values map[string]float64 `json:"values"`
}

func rowsResponse(names []string, rows []dataset.PixelRow) []rowPayload {
	out := make([]rowPayload, len(rows))
	for i, r := range rows {
		vals := make(map[string]float64, len(names))
		for j, name := range names {
			vals[name] = r.Values[j]
		}
		out[i] = rowPayload{Row: r.Row, Col: r.Col, Lon: r.Lon, Lat: r.Lat, Values: vals}
	}
	return out
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
