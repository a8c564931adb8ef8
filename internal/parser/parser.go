// =============================================================================
// QDX Converter - Stream Scanner
// =============================================================================
//
// The Parser makes one sequential pass over a QDX byte stream:
//
//   for each 64-byte slot:
//     1. decode the tail (bytes 44..64)
//     2. call the raw record hook, if any
//     3. look up the handler from the opcode byte(s)
//     4. decode the record and fold it into its session's ticket
//     5. on a total record, finalize the session and hand an accepted
//        ticket to the sink
//
// A short final read ends the scan normally. Malformed records, unknown
// opcodes and bad timestamps are logged and skipped; only a failing reader
// (or a cancelled context) stops the scan with an error.
//
// A Parser is single-use and single-threaded: one Parser per stream.
//
// =============================================================================

package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ginjaninja78/qdx-converter/internal/logger"
	"github.com/ginjaninja78/qdx-converter/internal/qdx"
	"github.com/ginjaninja78/qdx-converter/internal/ticket"
)

// Sink receives each accepted ticket, in stream order.
type Sink func(*ticket.Ticket)

// RawRecordHook observes every slot and its decoded tail before dispatch.
// The slot buffer is reused; copy it to keep it past the call.
type RawRecordHook func(slot []byte, tail *qdx.Tail)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Parser.
type Options struct {
	// LoyaltyCardRequired rejects tickets without a club card.
	// Default: true
	LoyaltyCardRequired bool

	// Debug retains a copy of every raw slot, returned by Saved.
	Debug bool

	// RawRecordHook is called for every slot before dispatch.
	RawRecordHook RawRecordHook

	// Table maps opcodes to handlers. Default: qdx.DefaultTable().
	Table *qdx.Table

	// Logger receives warnings for skipped records and bad timestamps.
	Logger logger.Logger
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		LoyaltyCardRequired: true,
		Table:               qdx.DefaultTable(),
		Logger:              logger.Nop(),
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats summarizes one scan.
type Stats struct {
	// Slots is the number of complete 64-byte slots read.
	Slots int

	// Dispatched counts records handled, per handler.
	Dispatched map[qdx.Handler]int

	// Ignored counts slots whose opcode has no handler.
	Ignored int

	// Malformed counts records skipped because they were too short.
	Malformed int

	// TimestampWarnings counts tails whose BCD time was invalid.
	TimestampWarnings int

	// Emitted counts tickets handed to the sink.
	Emitted int

	// Rejected counts finalized tickets discarded, per reason.
	Rejected map[ticket.Rejection]int

	// Pending is the number of sessions that never saw a total.
	Pending int

	// TrailingBytes is the size of a short final read, if any.
	TrailingBytes int
}

// RejectedTotal sums Rejected.
func (s Stats) RejectedTotal() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

// =============================================================================
// PARSER
// =============================================================================

// Parser scans one QDX stream.
type Parser struct {
	opts  Options
	store *ticket.Store
	stop  atomic.Bool

	saved [][]byte
	stats Stats
	index int
}

// New creates a Parser. Zero-valued Table and Logger fall back to defaults.
func New(opts Options) *Parser {
	if opts.Table == nil {
		opts.Table = qdx.DefaultTable()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Parser{
		opts:  opts,
		store: ticket.NewStore(opts.LoyaltyCardRequired),
		stats: Stats{
			Dispatched: make(map[qdx.Handler]int),
			Rejected:   make(map[ticket.Rejection]int),
		},
		index: -1,
	}
}

// Stop asks a running Parse to halt before its next read. Safe to call from
// another goroutine.
func (p *Parser) Stop() {
	p.stop.Store(true)
}

// Saved returns the retained raw slots when Debug is set.
func (p *Parser) Saved() [][]byte {
	return p.saved
}

// Pending lists sessions still open.
func (p *Parser) Pending() []string {
	return p.store.Pending()
}

// Parse scans r until it is exhausted, Stop is called or ctx is done,
// passing every accepted ticket to sink.
func (p *Parser) Parse(ctx context.Context, r io.Reader, sink Sink) (Stats, error) {
	br := bufio.NewReaderSize(r, 64*qdx.SlotSize)
	slot := make([]byte, qdx.SlotSize)

	for {
		if p.stop.Load() {
			p.opts.Logger.Debug("scan stopped", "slot", p.index+1)
			break
		}
		if err := ctx.Err(); err != nil {
			return p.finish(), err
		}

		n, err := io.ReadFull(br, slot)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			p.stats.TrailingBytes = n
			p.opts.Logger.Warn("ignoring short trailing record", "bytes", n, "slot", p.index+1)
			break
		}
		if err != nil {
			return p.finish(), fmt.Errorf("failed to read slot %d: %w", p.index+1, err)
		}

		p.index++
		p.stats.Slots++
		p.scanSlot(slot, sink)
	}

	return p.finish(), nil
}

func (p *Parser) finish() Stats {
	p.stats.Pending = p.store.Len()
	return p.stats
}

// scanSlot decodes and dispatches a single complete slot.
func (p *Parser) scanSlot(slot []byte, sink Sink) {
	if p.opts.Debug {
		p.saved = append(p.saved, append([]byte(nil), slot...))
	}

	tail, err := qdx.DecodeSlotTail(slot)
	if err != nil {
		p.stats.Malformed++
		p.opts.Logger.Warn("skipping record with unreadable tail", "slot", p.index, "error", err)
		return
	}

	if p.opts.RawRecordHook != nil {
		p.opts.RawRecordHook(slot, tail)
	}

	h := p.opts.Table.Lookup(slot)
	if h == qdx.HandlerNone {
		p.stats.Ignored++
		return
	}

	if err := p.dispatch(h, slot, tail, sink); err != nil {
		p.stats.Malformed++
		p.opts.Logger.Warn("skipping malformed record",
			"slot", p.index, "handler", h.String(), "session", tail.SessionID(), "error", err)
		return
	}
	p.stats.Dispatched[h]++
}
