// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Counters is a point-in-time copy of Statistics
type Counters struct {
	Elapsed time.Duration

	// Engine exchanges
	FramesSent     uint64
	SendErrors     uint64
	Queries        uint64
	Answered       uint64
	NoResponse     uint64
	Desyncs        uint64
	ChecksumErrors uint64
	DecodeErrors   uint64

	// Monitored frames
	TotalFrames     uint64
	ValidFrames     uint64
	FrameErrors     uint64
	AnomalousFrames uint64
	Anomalies       map[AnomalyType]uint64
}

// FailedQueries is the number of queries that produced no result.
func (c Counters) FailedQueries() uint64 {
	return c.Queries - c.Answered
}

// FrameRate returns frames sent plus frames monitored per second.
func (c Counters) FrameRate() float64 {
	if c.Elapsed <= 0 {
		return 0
	}
	return float64(c.FramesSent+c.TotalFrames) / c.Elapsed.Seconds()
}

// ErrorRate returns failed queries, send errors and rejected frames
// per second.
func (c Counters) ErrorRate() float64 {
	if c.Elapsed <= 0 {
		return 0
	}
	errs := c.FailedQueries() + c.SendErrors + c.FrameErrors + c.AnomalousFrames
	return float64(errs) / c.Elapsed.Seconds()
}

// String returns a formatted statistics summary
func (c Counters) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", c.Elapsed.Seconds())

	if c.FramesSent > 0 {
		fmt.Fprintf(&b, "Frames Sent:     %8d\n", c.FramesSent)
		if c.SendErrors > 0 {
			fmt.Fprintf(&b, "  Send Errors:      %5d\n", c.SendErrors)
		}
	}
	if c.Queries > 0 {
		fmt.Fprintf(&b, "Queries:         %8d (%.1f%% answered)\n", c.Queries, percent(c.Answered, c.Queries))
		if c.NoResponse > 0 {
			fmt.Fprintf(&b, "  No Response:      %5d\n", c.NoResponse)
		}
		if c.Desyncs > 0 {
			fmt.Fprintf(&b, "  Desync:           %5d\n", c.Desyncs)
		}
		if c.ChecksumErrors > 0 {
			fmt.Fprintf(&b, "  Checksum Errors:  %5d\n", c.ChecksumErrors)
		}
		if c.DecodeErrors > 0 {
			fmt.Fprintf(&b, "  Decode Errors:    %5d\n", c.DecodeErrors)
		}
	}
	if c.TotalFrames > 0 {
		fmt.Fprintf(&b, "Frames Seen:     %8d\n", c.TotalFrames)
		fmt.Fprintf(&b, "Valid Frames:    %8d (%.1f%%)\n", c.ValidFrames, percent(c.ValidFrames, c.TotalFrames))
		if c.FrameErrors > 0 {
			fmt.Fprintf(&b, "Rejected Frames: %8d (%.1f%%)\n", c.FrameErrors, percent(c.FrameErrors, c.TotalFrames))
		}
		if c.AnomalousFrames > 0 {
			fmt.Fprintf(&b, "Anomalous:       %8d (%.1f%%)\n", c.AnomalousFrames, percent(c.AnomalousFrames, c.TotalFrames))
			for t := AnomalyUnknownOpcode; t <= AnomalyChecksum; t++ {
				if n := c.Anomalies[t]; n > 0 {
					fmt.Fprintf(&b, "  %-18s%5d\n", t.String()+":", n)
				}
			}
		}
	}

	fmt.Fprintf(&b, "Frame Rate:      %8.1f frames/sec\n", c.FrameRate())
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", c.ErrorRate())
	b.WriteString("================================\n")
	return b.String()
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100.0 / float64(total)
}

// Statistics tracks exchange and frame statistics. It implements Observer
// and is safe for concurrent use.
type Statistics struct {
	mu    sync.Mutex
	start time.Time
	c     Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{
		start: time.Now(),
		c:     Counters{Anomalies: map[AnomalyType]uint64{}},
	}
}

// OnSend records a transmitted frame
func (s *Statistics) OnSend(opcode byte, frame []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.FramesSent++
	if err != nil {
		s.c.SendErrors++
	}
}

// OnResponse records the outcome of a query
func (s *Statistics) OnResponse(opcode byte, payload []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Queries++
	switch ClassifyError(err) {
	case FailureNone:
		s.c.Answered++
	case FailureNoResponse:
		s.c.NoResponse++
	case FailureDesync:
		s.c.Desyncs++
	case FailureChecksum:
		s.c.ChecksumErrors++
	default:
		s.c.DecodeErrors++
	}
}

// Update records a monitored frame, a decoder error, or both
func (s *Statistics) Update(frame *Frame, decodeErr error, validationErrors []ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.TotalFrames++

	if decodeErr != nil {
		s.c.FrameErrors++
		return
	}

	if len(validationErrors) > 0 {
		s.c.AnomalousFrames++
		for _, v := range validationErrors {
			s.c.Anomalies[v.Type]++
		}
		return
	}
	s.c.ValidFrames++
}

// Snapshot returns a copy of the counters
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.c
	c.Elapsed = time.Since(s.start)
	c.Anomalies = make(map[AnomalyType]uint64, len(s.c.Anomalies))
	for k, v := range s.c.Anomalies {
		c.Anomalies[k] = v
	}
	return c
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	return s.Snapshot().String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = time.Now()
	s.c = Counters{Anomalies: map[AnomalyType]uint64{}}
}

var _ Observer = (*Statistics)(nil)
