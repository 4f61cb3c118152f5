// Package refurbishment implements the `r` subcommand: replay of a
// pre-collected code file for rejection processing, with no printer
// listener.
package refurbishment

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dm-line/lineemu/internal/banner"
	"github.com/dm-line/lineemu/internal/pipeline"
	"github.com/dm-line/lineemu/pkg/admin"
	"github.com/dm-line/lineemu/pkg/flags"
)

// Main executes the refurbishment subcommand. It takes no
// domain-specific options; dm.csv is resolved relative to the running
// executable.
func Main(args []string) {
	cmd := flag.NewFlagSet("r", flag.ExitOnError)
	metricsAddr := cmd.String("metrics-addr", ":9991", "address to serve scrapable metrics on")
	flags.ConfigureAndParse(cmd, args)

	exe, err := os.Executable()
	if err != nil {
		log.Fatalf("failed to resolve executable path for dm.csv: %s", err)
	}
	csvPath := filepath.Join(filepath.Dir(exe), "dm.csv")

	if _, err := os.Stat(csvPath); err != nil {
		log.Errorf("refurbishment file missing: %s", csvPath)
		return
	}

	topo := pipeline.BuildRefurbishment(csvPath, pipeline.CameraPort)

	banner.Print("lineemu refurbishment starting", topo.Summary)

	adminServer := admin.NewServer(*metricsAddr, false)
	go func() {
		log.Infof("starting admin server on %s", *metricsAddr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("admin server error (%s): %s", *metricsAddr, err)
		}
	}()

	topo.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	adminServer.Shutdown(ctx)
}
