// Package pipeline wires the listeners, emitters, and code queues
// into the two production-line topologies: serialization (printer →
// camera → N aggregation streams → verification, plus pallet
// printers) and refurbishment (file source → camera).
package pipeline

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dm-line/lineemu/internal/emitter"
	"github.com/dm-line/lineemu/internal/fileemitter"
	"github.com/dm-line/lineemu/internal/netsvc"
	"github.com/dm-line/lineemu/internal/printerrole"
	"github.com/dm-line/lineemu/internal/queue"
)

// Default port assignments for the production-line topology.
const (
	PrinterPort                 = 9101
	CameraPort                  = 23
	AggregationStartPort        = 27
	AggregationVerificationPort = 9102 // only when aggregation count > 0
	VerificationCameraPort      = 32
	Level0PalletPort            = 9102 // only when aggregation count == 0
	Level1PalletPort            = 9103
	Level2PalletPort            = 9104
	Level3PalletPort            = 9105

	verificationCameraInterval = 250 * time.Millisecond
)

// SerializationConfig configures the primary topology, mapped directly
// from the `s` subcommand's flags.
type SerializationConfig struct {
	PrinterPort      int
	CameraPort       int
	AggregationCount int // N, 0..9

	// DMFileSource, when true, preloads queue S from CSVPath instead of
	// running a DM Printer listener on PrinterPort.
	DMFileSource bool
	CSVPath      string

	GenErrors    bool
	ErrorPercent int
	DropPercent  int
	ReadInterval time.Duration

	AddQuality bool
	BadPercent int
}

// Listener is anything with a blocking Run method; both netsvc.Listener
// and the refurbishment file loader satisfy it via a small adapter.
type Listener interface {
	Run()
}

type runnerFunc func()

func (f runnerFunc) Run() { f() }

// Topology is a built, not-yet-started set of listeners plus a short
// human-readable summary for the startup banner.
type Topology struct {
	Listeners []Listener
	Summary   []string
}

// Start launches every listener in its own goroutine. It returns
// immediately; the listeners run until the process exits.
func (t *Topology) Start() {
	for _, l := range t.Listeners {
		go l.Run()
	}
}

// BuildSerialization constructs the full serialization topology.
func BuildSerialization(cfg SerializationConfig) (*Topology, error) {
	t := &Topology{}

	s := queue.New("serialization")
	if cfg.DMFileSource {
		loader := runnerFunc(func() {
			if err := fileemitter.Run(cfg.CSVPath, s); err != nil {
				log.Errorf("file-source load of %s failed: %v", cfg.CSVPath, err)
			}
		})
		t.add(loader, fmt.Sprintf("File-source loader <- %s  -> queue S", cfg.CSVPath))
	} else {
		printer, err := netsvc.New("PRNSER", cfg.PrinterPort, printerrole.ClientStep("PRNSER", s), nil)
		if err != nil {
			return nil, fmt.Errorf("dm printer listener: %w", err)
		}
		t.add(printer, fmt.Sprintf("DM Printer       :%d  -> queue S", cfg.PrinterPort))
	}

	subQueues := make([]*queue.CodeQueue, cfg.AggregationCount)
	for i := range subQueues {
		subQueues[i] = queue.New(fmt.Sprintf("aggregation-%d", i))
	}

	camEmit := emitter.New(emitter.Config{
		Role:         "DMSER",
		In:           s,
		Interval:     cfg.ReadInterval,
		Stack:        1,
		GenErrors:    cfg.GenErrors,
		ErrorPercent: cfg.ErrorPercent,
		DropPercent:  cfg.DropPercent,
		AddQuality:   cfg.AddQuality,
		BadPercent:   cfg.BadPercent,
		FanOut:       subQueues,
	})
	camera, err := netsvc.New("DMSER", cfg.CameraPort, nil, camEmit.OnTick)
	if err != nil {
		return nil, fmt.Errorf("dm camera listener: %w", err)
	}
	t.add(camera, fmt.Sprintf("DM Camera        :%d  <- queue S, fan-out to %d stream(s)", cfg.CameraPort, cfg.AggregationCount))

	if cfg.AggregationCount > 0 {
		for i, sq := range subQueues {
			port := AggregationStartPort + i
			role := fmt.Sprintf("AGR_%d", i)
			agrEmit := emitter.New(emitter.Config{
				Role:     role,
				In:       sq,
				Interval: cfg.ReadInterval,
				Stack:    1,
			})
			agrListener, err := netsvc.New(role, port, nil, agrEmit.OnTick)
			if err != nil {
				return nil, fmt.Errorf("aggregation camera %d listener: %w", i, err)
			}
			t.add(agrListener, fmt.Sprintf("Aggregation Camera %d :%d <- queue A%d", i, port, i))
		}

		v := queue.New("verification")
		agrPrinter, err := netsvc.New("PRNAGR", AggregationVerificationPort, printerrole.ClientStep("PRNAGR", v), nil)
		if err != nil {
			return nil, fmt.Errorf("aggregation verification printer listener: %w", err)
		}
		t.add(agrPrinter, fmt.Sprintf("Aggregation Verification Printer :%d -> queue V", AggregationVerificationPort))

		verifyEmit := emitter.New(emitter.Config{
			Role:     "VERIF",
			In:       v,
			Interval: verificationCameraInterval,
			Stack:    1,
		})
		verifyListener, err := netsvc.New("VERIF", VerificationCameraPort, nil, verifyEmit.OnTick)
		if err != nil {
			return nil, fmt.Errorf("verification camera listener: %w", err)
		}
		t.add(verifyListener, fmt.Sprintf("Verification Camera :%d <- queue V", VerificationCameraPort))
	} else {
		level0 := queue.New("level0")
		level0Listener, err := netsvc.New("LEVEL_0", Level0PalletPort, printerrole.ClientStep("LEVEL_0", level0), nil)
		if err != nil {
			return nil, fmt.Errorf("level0 pallet printer listener: %w", err)
		}
		t.add(level0Listener, fmt.Sprintf("LEVEL_0 Pallet Printer :%d", Level0PalletPort))
	}

	for i, port := range []int{Level1PalletPort, Level2PalletPort, Level3PalletPort} {
		q := queue.New(fmt.Sprintf("level%d", i+1))
		role := fmt.Sprintf("LEVEL_%d", i+1)
		l, err := netsvc.New(role, port, printerrole.ClientStep(role, q), nil)
		if err != nil {
			return nil, fmt.Errorf("%s pallet printer listener: %w", role, err)
		}
		t.add(l, fmt.Sprintf("%s Pallet Printer :%d", role, port))
	}

	return t, nil
}

// BuildRefurbishment constructs the replay topology: a file-source
// emitter feeding a single camera on cameraPort.
func BuildRefurbishment(csvPath string, cameraPort int) *Topology {
	t := &Topology{}

	d := queue.New("refurbishment")
	camEmit := emitter.New(emitter.Config{
		Role:     "DMREF",
		In:       d,
		Interval: 150 * time.Millisecond,
		Stack:    1,
	})
	camera := runnerFunc(func() {
		l, err := netsvc.New("DMREF", cameraPort, nil, camEmit.OnTick)
		if err != nil {
			log.Fatalf("refurbishment camera listener: %s", err)
		}
		l.Run()
	})
	t.add(camera, fmt.Sprintf("Refurbishment Camera :%d <- queue D", cameraPort))

	loader := runnerFunc(func() {
		// BuildRefurbishment's caller checks the file exists before
		// calling this; a late error here is scanner-level and simply
		// ends the load early.
		if err := fileemitter.Run(csvPath, d); err != nil {
			log.Errorf("refurbishment file load ended early: %s", err)
		}
	})
	t.add(loader, fmt.Sprintf("File-source loader <- %s", csvPath))

	return t
}

func (t *Topology) add(l Listener, summary string) {
	t.Listeners = append(t.Listeners, l)
	t.Summary = append(t.Summary, summary)
}
