package protocol

import (
	"regexp"
	"testing"

	"github.com/dm-line/lineemu/internal/queue"
)

func newTestPrinter() (*Printer, *queue.CodeQueue) {
	q := queue.New("test")
	return NewPrinter("PRNTEST", q), q
}

func TestControlRequests(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}

	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"esc-check", "\x1b\x21\x3f", "\x00"},
		{"tilde-check", "~S,CHECK", "00"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reply, ok := p.Service(cs, c.payload)
			if !ok {
				t.Fatalf("expected control reply for %q", c.payload)
			}
			if string(reply) != c.want {
				t.Errorf("reply = %q, want %q", reply, c.want)
			}
		})
	}

	if q.Len() != 0 {
		t.Errorf("control requests must not touch the code queue, got len=%d", q.Len())
	}
}

func TestOutLabelCounter(t *testing.T) {
	p, _ := newTestPrinter()
	cs := &ClientState{}

	for i := 0; i < 5; i++ {
		p.Service(cs, "BARCODE=CODE000"+string(rune('0'+i)))
	}

	reply, ok := p.Service(cs, "OUT @LABEL")
	if !ok {
		t.Fatal("expected a control reply")
	}
	if string(reply) != "5" {
		t.Errorf("OUT @LABEL = %q, want %q", reply, "5")
	}
}

func TestTildeSLabelReportsBufferLength(t *testing.T) {
	p, _ := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "BARCODE=A")
	p.Service(cs, "BARCODE=B")

	reply, ok := p.Service(cs, "~S,LABEL")
	if !ok || string(reply) != "2" {
		t.Fatalf("~S,LABEL = %q, ok=%v, want 2", reply, ok)
	}
}

func TestBarcodeDialect(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "BARCODE=01034567890123452159ABCD\r\n")
	p.Drain(cs)

	got, ok := q.Pop()
	if !ok || got != "01034567890123452159ABCD" {
		t.Fatalf("got %q, ok=%v", got, ok)
	}
}

func TestDMatrixDialect(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, `DMATRIX 10,10,400,400,c126,"0109876543210982215ZXY"`)
	p.Drain(cs)

	got, ok := q.Pop()
	if !ok || got != "0109876543210982215ZXY" {
		t.Fatalf("got %q, ok=%v", got, ok)
	}
}

func TestTilde1PrefixStripped(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "BARCODE=~1010987\x1d215XY")
	p.Drain(cs)

	got, ok := q.Pop()
	if !ok || got != "010987\x1d215XY" {
		t.Fatalf("got %q, ok=%v", got, ok)
	}
}

func TestGTINVolumeSuffix(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "BARCODE=01050603673403981234567890123456")
	p.Drain(cs)

	got, ok := q.Pop()
	if !ok {
		t.Fatal("expected a code")
	}
	re := regexp.MustCompile(`^01050603673403981234567890123456\x1d3353\d{6}$`)
	if !re.MatchString(got) {
		t.Errorf("got %q, want match of %s", got, re)
	}
}

func TestGTINWeightSuffix(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "BARCODE=01078086318577261234567890123456")
	p.Drain(cs)

	got, ok := q.Pop()
	if !ok {
		t.Fatal("expected a code")
	}
	re := regexp.MustCompile(`^01078086318577261234567890123456\x1d3103\d{6}$`)
	if !re.MatchString(got) {
		t.Errorf("got %q, want match of %s", got, re)
	}
}

func TestUnrecognizedPayloadEmitsNothing(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "this is not a printer command at all")
	p.Drain(cs)

	if _, ok := q.Pop(); ok {
		t.Fatal("unrecognized payload must not emit a code")
	}
}

func TestAtMostOneCodePerDrain(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "BARCODE=A")
	p.Service(cs, "BARCODE=B")
	if len(cs.Buffer) != 2 {
		t.Fatalf("expected 2 buffered codes, got %d", len(cs.Buffer))
	}

	p.Drain(cs)
	if q.Len() != 1 || len(cs.Buffer) != 1 {
		t.Fatalf("drain must move exactly one code, queue len=%d buffer len=%d", q.Len(), len(cs.Buffer))
	}

	p.Drain(cs)
	if q.Len() != 2 || len(cs.Buffer) != 0 {
		t.Fatalf("second drain should empty the buffer, queue len=%d buffer len=%d", q.Len(), len(cs.Buffer))
	}
}

func TestXRB0Dialect(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "XRB0,0,6,0,\nSOME_CODE_123")
	p.Drain(cs)

	got, ok := q.Pop()
	if !ok || got != "SOME_CODE_123" {
		t.Fatalf("got %q, ok=%v", got, ok)
	}
}

func TestZPLDialect(t *testing.T) {
	p, q := newTestPrinter()
	cs := &ClientState{}
	p.Service(cs, "^FH^FD_7eZPLCODE001^FS")
	p.Drain(cs)

	got, ok := q.Pop()
	if !ok || got != "ZPLCODE001" {
		t.Fatalf("got %q, ok=%v", got, ok)
	}
}
