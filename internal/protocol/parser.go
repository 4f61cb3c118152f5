// Package protocol implements the printer-role command parser: a
// control-request lookup table and label-dialect extraction ladder,
// plus GS1 suffix rules and a per-client print buffer.
//
// A Printer is driven by exactly one goroutine (the printer-role
// listener), so its global counter needs no locking.
package protocol

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/dm-line/lineemu/internal/queue"
	"github.com/dm-line/lineemu/pkg/metrics"
)

const chunkSize = 4096

// ClientState is the per-connection print buffer for a printer-role
// listener.
type ClientState struct {
	Buffer []string
}

// Printer extracts DM codes from printer command streams and feeds
// them into a shared code queue, one per client service tick at most.
type Printer struct {
	Role        string
	Out         *queue.CodeQueue
	GlobalCount int
}

// NewPrinter returns a Printer feeding out, labeled role for metrics
// and log lines.
func NewPrinter(role string, out *queue.CodeQueue) *Printer {
	return &Printer{Role: role, Out: out}
}

// Service handles one tick's worth of raw client input: control
// requests short-circuit with a fixed reply and touch nothing else;
// otherwise the payload is scanned for a label-dialect match and, on
// success, the extracted code is appended to cs.Buffer and
// GlobalCount is incremented. Returns the control reply bytes, if any.
func (p *Printer) Service(cs *ClientState, raw string) (reply []byte, hasReply bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	if reply, ok := controlReply(trimmed, p.GlobalCount, len(cs.Buffer)); ok {
		return reply, true
	}

	code, matched := extractCode(trimmed)
	if !matched {
		log.Debugf("<%s> unrecognized print payload: %q", p.Role, trimmed)
		return nil, false
	}
	if code == "" {
		return nil, false
	}

	code = applyGTINSuffix(code)
	cs.Buffer = append(cs.Buffer, code)
	p.GlobalCount++
	metrics.CodesPrinted.WithLabelValues(p.Role).Inc()
	log.Debugf("<%s> [#%d] PRINTED: %s", p.Role, p.GlobalCount, code)
	return nil, false
}

// Drain moves at most one code from cs.Buffer to the shared queue,
// preserving per-client FIFO order.
func (p *Printer) Drain(cs *ClientState) {
	if len(cs.Buffer) == 0 {
		return
	}
	code := cs.Buffer[0]
	cs.Buffer = cs.Buffer[1:]
	p.Out.Push(code)
}

const (
	escCheck  = "\x1b\x21\x3f"
	tildeSCK  = "~S,CHECK"
	outLabel  = "OUT @LABEL"
	tildeSLBL = "~S,LABEL"
)

// controlReply matches the whole trimmed payload against the fixed
// control-request table. It consumes no parse work: the code queue
// and print buffer are left untouched either way.
func controlReply(trimmed string, globalCount, clientBufLen int) ([]byte, bool) {
	switch trimmed {
	case escCheck:
		return []byte{0x00}, true
	case tildeSCK:
		return []byte("00"), true
	case outLabel:
		return []byte(strconv.Itoa(globalCount)), true
	case tildeSLBL:
		return []byte(strconv.Itoa(clientBufLen)), true
	}
	return nil, false
}

// extractCode scans trimmed's rows for the first label-dialect match,
// in a fixed ordered pattern list. matched reports whether any row
// matched; code may be empty even when matched (e.g. a malformed row),
// which counts as "nothing emitted" without logging it as
// unrecognized.
func extractCode(trimmed string) (code string, matched bool) {
	rows := strings.Split(trimmed, "\n")

	for i, row := range rows {
		switch {
		case strings.Contains(row, "BARCODE="):
			idx := strings.Index(row, "BARCODE=")
			code = strings.TrimSpace(dequote(row[idx+len("BARCODE="):]))
			return stripTilde1(code), true

		case strings.Contains(row, "DMATRIX") || strings.Contains(row, "BARCODE "):
			fields := strings.Split(row, ",")
			last := dequote(fields[len(fields)-1])
			last = stripDelimiters(last)
			code = strings.TrimSpace(last)
			return stripTilde1(code), true

		case strings.Contains(row, "XRB0,0,"):
			if i+1 < len(rows) {
				code = strings.TrimSpace(rows[i+1])
			}
			return stripTilde1(code), true

		case strings.Contains(row, "BR,24,24"):
			const marker = "BR,24,24,2,5,250,0,1,"
			idx := strings.Index(row, marker)
			if idx < 0 {
				return "", true
			}
			code = strings.TrimSpace(dequote(row[idx+len(marker):]))
			return stripTilde1(code), true

		case strings.Contains(row, "^FH^FD_7e"):
			r := strings.ReplaceAll(row, "^FH^FD_7e", "")
			r = strings.ReplaceAll(r, "^FS", "")
			code = strings.TrimSpace(r)
			return stripTilde1(code), true
		}
	}

	return "", false
}

func dequote(s string) string {
	return strings.ReplaceAll(s, "~d034", `"`)
}

// stripDelimiters removes one leading and one trailing character, the
// quote delimiters a comma-split field carries.
func stripDelimiters(s string) string {
	if len(s) < 2 {
		return ""
	}
	return s[1 : len(s)-1]
}

func stripTilde1(code string) string {
	if strings.HasPrefix(code, "~1") {
		return code[2:]
	}
	return code
}

const (
	gtinVolume = "05060367340398"
	gtinWeight = "07808631857726"
	groupSep   = "\x1d"
)

// applyGTINSuffix appends the GS1 volume or weight marker when code's
// GTIN matches one of the two known product codes. At most one suffix
// is appended; volume is checked first because the two GTIN
// substrings never co-occur in practice.
func applyGTINSuffix(code string) string {
	switch {
	case strings.Contains(code, gtinVolume):
		return code + groupSep + "3353" + randomSixDigits()
	case strings.Contains(code, gtinWeight):
		return code + groupSep + "3103" + randomSixDigits()
	}
	return code
}

// randomSixDigits returns a zero-padded 6-digit value, permitting
// leading zeros rather than restricting to a nonzero-leading range.
func randomSixDigits() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}
