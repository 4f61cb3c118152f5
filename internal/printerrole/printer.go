// Package printerrole adapts a protocol.Printer into a netsvc.ClientStep:
// the printer-role half of the generalized listener engine.
package printerrole

import (
	"github.com/dm-line/lineemu/internal/netsvc"
	"github.com/dm-line/lineemu/internal/protocol"
	"github.com/dm-line/lineemu/internal/queue"
)

// ClientStep builds the per-client step for a printer-role listener
// feeding out. role labels its metrics and log lines.
func ClientStep(role string, out *queue.CodeQueue) netsvc.ClientStep {
	p := protocol.NewPrinter(role, out)

	return func(c *netsvc.ClientConn) error {
		if c.State == nil {
			c.State = &protocol.ClientState{}
		}
		cs := c.State.(*protocol.ClientState)

		raw, err := netsvc.ReadAvailable(c)
		if err != nil {
			return err
		}
		if raw != "" {
			if reply, ok := p.Service(cs, raw); ok {
				if _, werr := c.Conn.Write(reply); werr != nil {
					return werr
				}
			}
		}
		p.Drain(cs)
		return nil
	}
}
