// Package timing records how long each phase of a fetch takes.
package timing

import (
	"fmt"
	"strings"
	"time"
)

// Phase identifies one measured step of a fetch.
type Phase int

const (
	PhaseDNS Phase = iota
	PhaseTCP
	PhaseTLS
	// PhaseTTFB runs from the request being written to the first response byte.
	PhaseTTFB
	// PhaseBody covers body acquisition from the socket or the renderer.
	PhaseBody
	numPhases
)

var phaseNames = [numPhases]string{"dns", "tcp", "tls", "ttfb", "body"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Metrics is a snapshot of phase durations. Phases that never ran are zero.
type Metrics struct {
	DNSLookup    time.Duration `json:"dns_lookup"`
	TCPConnect   time.Duration `json:"tcp_connect"`
	TLSHandshake time.Duration `json:"tls_handshake"`
	TTFB         time.Duration `json:"ttfb"`
	Body         time.Duration `json:"body"`
	TotalTime    time.Duration `json:"total_time"`
}

// ConnectionTime is DNS + TCP + TLS.
func (m Metrics) ConnectionTime() time.Duration {
	return m.DNSLookup + m.TCPConnect + m.TLSHandshake
}

func (m Metrics) String() string {
	var b strings.Builder
	for p, d := range m.byPhase() {
		fmt.Fprintf(&b, "%s=%v ", Phase(p), d)
	}
	fmt.Fprintf(&b, "total=%v", m.TotalTime)
	return b.String()
}

func (m Metrics) byPhase() [numPhases]time.Duration {
	return [numPhases]time.Duration{m.DNSLookup, m.TCPConnect, m.TLSHandshake, m.TTFB, m.Body}
}

type span struct {
	start, end time.Time
}

// Timer measures the phases of a single fetch. It is not safe for
// concurrent use; each fetch owns its Timer.
type Timer struct {
	created time.Time
	spans   [numPhases]span
}

// NewTimer starts the clock for TotalTime.
func NewTimer() *Timer {
	return &Timer{created: time.Now()}
}

// Begin marks the start of p and returns the function that marks its end,
// so a phase can be timed with defer t.Begin(p)().
func (t *Timer) Begin(p Phase) func() {
	t.spans[p] = span{start: time.Now()}
	return func() { t.spans[p].end = time.Now() }
}

// Metrics returns the durations recorded so far.
func (t *Timer) Metrics() Metrics {
	var d [numPhases]time.Duration
	for i, s := range t.spans {
		if !s.start.IsZero() && !s.end.IsZero() {
			d[i] = s.end.Sub(s.start)
		}
	}
	return Metrics{
		DNSLookup:    d[PhaseDNS],
		TCPConnect:   d[PhaseTCP],
		TLSHandshake: d[PhaseTLS],
		TTFB:         d[PhaseTTFB],
		Body:         d[PhaseBody],
		TotalTime:    time.Since(t.created),
	}
}
