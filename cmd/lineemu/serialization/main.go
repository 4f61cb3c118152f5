// Package serialization implements the `s` subcommand: the primary
// printer/camera/aggregation topology.
package serialization

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

// Main executes the serialization subcommand.
func Main(args []string) {
	cmd := flag.NewFlagSet("s", flag.ExitOnError)

	metricsAddr := cmd.String("metrics-addr", ":9990", "address to serve scrapable metrics on")
	dmFileSource := cmd.Bool("f", false, "preload queue S from dm.csv instead of running a DM Printer listener")
	agrCount := cmd.Int("a", 3, "aggregation sub-queue count (0-9)")
	genErr := cmd.Bool("g", false, "enable error/duplicate fault injection on the serialization camera")
	percErr := cmd.Int("e", 2, "error percent when -g is set (1-99)")
	dropDM := cmd.Int("d", 0, "drop percent before transmission (0-5)")
	readInterval := cmd.Float64("r", 0.15, "camera read interval in seconds")
	addQuality := cmd.Bool("q", false, "append quality tags to transmitted codes")
	badQualityPercent := cmd.Float64("qe", 0.15, "fraction of quality tags that are bad, 0.0-1.0")

	flags.ConfigureAndParse(cmd, args)

	agr := clamp(*agrCount, 0, 9)
	drop := clamp(*dropDM, 0, 5)
	perc := clamp(*percErr, 1, 99)
	badPercent := clamp(int(*badQualityPercent*100), 0, 100)

	csvPath := ""
	if *dmFileSource {
		exe, err := os.Executable()
		if err != nil {
			log.Fatalf("failed to resolve executable path for dm.csv: %s", err)
		}
		csvPath = filepath.Join(filepath.Dir(exe), "dm.csv")
	}

	cfg := pipeline.SerializationConfig{
		PrinterPort:      pipeline.PrinterPort,
		CameraPort:       pipeline.CameraPort,
		AggregationCount: agr,
		DMFileSource:     *dmFileSource,
		CSVPath:          csvPath,
		GenErrors:        *genErr,
		ErrorPercent:     perc,
		DropPercent:      drop,
		ReadInterval:     time.Duration(*readInterval * float64(time.Second)),
		AddQuality:       *addQuality,
		BadPercent:       badPercent,
	}

	topo, err := pipeline.BuildSerialization(cfg)
	if err != nil {
		log.Fatalf("failed to build serialization topology: %s", err)
	}

	banner.Print("lineemu serialization starting", topo.Summary)

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

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
