// Package stats implements the performance collector: it reads the
// sink's received_messages log, recovers each application
// payload's end-to-end delay, and reports a deadline-miss ratio and
// delay histogram per source.
package stats

import (
	"strconv"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"github.com/kprusa/wsnsim/internal/routing"
	"github.com/kprusa/wsnsim/internal/routing/dap"
	"github.com/kprusa/wsnsim/internal/topology"
	"github.com/kprusa/wsnsim/internal/wire"
)

// SourceReport collects every measured end-to-end delay from one source
// and the metrics derived from them.
type SourceReport struct {
	Source topology.Address
	Delays []float64

	// DeadlineMissRatio is |{d : d > deadline}| / |d|.
	DeadlineMissRatio float64

	// Histogram counts delays into the same discretized bins DAP uses,
	// so the two can be compared directly.
	Histogram [dap.NumBins]int

	Mean   float64
	Median float64
}

// Collect groups the sink's received_messages by source and computes
// per-source statistics, scoped to deadline seconds. Entries whose
// payload is protocol control traffic (anything containing "Hello",
// "ETX", or "DAP") are skipped; entries that don't parse as a
// "<src>/<m>/<t_tx>" application payload are silently ignored rather
// than treated as an error.
func Collect(received []routing.LogEntry, deadline float64) map[topology.Address]*SourceReport {
	bySource := make(map[topology.Address][]float64)

	for _, e := range received {
		pkt, err := wire.Parse(e.Wire)
		if err != nil {
			continue
		}
		if isControlPayload(pkt.Payload) {
			continue
		}
		src, tTx, ok := parseApplicationPayload(pkt.Payload)
		if !ok {
			continue
		}
		bySource[src] = append(bySource[src], e.Time-tTx)
	}

	reports := make(map[topology.Address]*SourceReport, len(bySource))
	for src, delays := range bySource {
		reports[src] = summarize(src, delays, deadline)
	}
	return reports
}

func isControlPayload(payload string) bool {
	return strings.Contains(payload, "Hello") ||
		strings.Contains(payload, "ETX") ||
		strings.Contains(payload, "DAP")
}

// parseApplicationPayload splits a "<src>/<m>/<t_tx>" payload. m is
// ignored; only src and t_tx are needed for delay accounting.
func parseApplicationPayload(payload string) (src topology.Address, tTx float64, ok bool) {
	parts := strings.Split(payload, "/")
	if len(parts) != 3 {
		return "", 0, false
	}
	t, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", 0, false
	}
	return topology.Address(parts[0]), t, true
}

func summarize(src topology.Address, delays []float64, deadline float64) *SourceReport {
	r := &SourceReport{Source: src, Delays: delays}
	if len(delays) == 0 {
		return r
	}

	var missed int
	for _, d := range delays {
		if d > deadline {
			missed++
		}
		r.Histogram[dap.BinIndex(d)]++
	}
	r.DeadlineMissRatio = float64(missed) / float64(len(delays))

	if mean, err := mstats.Mean(delays); err == nil {
		r.Mean = mean
	}
	if median, err := mstats.Median(delays); err == nil {
		r.Median = median
	}
	return r
}
