// Package fileemitter implements the file-source emitter: it replaces
// a printer-role listener for the refurbishment topology, preloading a
// shared code queue from a flat file instead of parsing a printer
// command stream.
package fileemitter

import (
	"bufio"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dm-line/lineemu/internal/queue"
)

var (
	// startupDelay lets subscribers connect to the consuming camera
	// before codes start flowing. Part of the contract, not incidental.
	// A var, not a const, so tests can shrink it.
	startupDelay = 5 * time.Second
	// linePause throttles producer rate so the consumer emitter's own
	// cadence governs transmission, not the file's read speed.
	linePause = 20 * time.Millisecond
)

// Run opens path, waits startupDelay, then pushes each trimmed line
// onto out with linePause between lines, and returns once the file is
// exhausted. A missing file is reported via the returned error, which
// the pipeline loaders log; the refurbishment subcommand checks that
// the file exists before it starts any listener.
func Run(path string, out *queue.CodeQueue) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	time.Sleep(startupDelay)

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		out.Push(line)
		n++
		time.Sleep(linePause)
	}
	log.Infof("refurbishment: loaded %d codes from %s", n, path)
	return scanner.Err()
}
