package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spectraweb/internal/refbackend"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the bundled prediction backend",
	Long: `Serves /identify_plastic, /recommend_microbe, /monitor_degradation and
/predict/ using a nearest-centroid classifier and a microbial database
(reference.microbial_db, or the built-in table).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := refbackend.OpenMicrobialDB(cfg.Reference.MicrobialDB)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              cfg.Reference.Addr,
			Handler:           refbackend.NewServer(db, conditions(cfg), logger.Named("backend")).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("serving prediction backend",
			zap.String("addr", cfg.Reference.Addr),
			zap.Int("microbes", db.Len()))
		return listenAndServe(cmd.Context(), srv)
	},
}
