package transport

import (
	"math"
	"strings"
	"time"

	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// SignalGate applies the display-side signal filters before anything reaches
// the update buffer: allow/deny lists, an optional per-message signal cap and
// per-signal minimum emit intervals. Signal names are matched case-insensitively.
//
// The gate is only touched from the dispatch loop goroutine, so the emit-time
// map needs no locking.
// -----------------------------------------------------------------------------

type SignalGate struct {
	allow         map[string]struct{}
	deny          map[string]struct{}
	limits        map[string]time.Duration
	maxPerMessage int
	lastEmit      map[string]time.Time
}

// -----------------------------------------------------------------------------

// NewSignalGate builds a gate from the signal filter configuration.
func NewSignalGate(cfg models.MSignalFilterConfig) *SignalGate {
	g := &SignalGate{
		limits:        make(map[string]time.Duration),
		maxPerMessage: cfg.MaxSignalsPerMessage,
		lastEmit:      make(map[string]time.Time),
	}

	if len(cfg.Allow) > 0 {
		g.allow = make(map[string]struct{}, len(cfg.Allow))
		for _, name := range cfg.Allow {
			g.allow[strings.ToLower(name)] = struct{}{}
		}
	}
	if len(cfg.Deny) > 0 {
		g.deny = make(map[string]struct{}, len(cfg.Deny))
		for _, name := range cfg.Deny {
			g.deny[strings.ToLower(name)] = struct{}{}
		}
	}
	for name, ms := range cfg.RateLimitsMs {
		g.limits[strings.ToLower(name)] = time.Duration(ms) * time.Millisecond
	}

	return g
}

// -----------------------------------------------------------------------------

// Extract converts one decoded message into admitted signal samples. Raw
// messages yield nothing.
func (g *SignalGate) Extract(msg *models.MDecodedMessage, now time.Time) []models.MSignalSample {
	if msg.Type != models.MessageTypeDecoded || len(msg.Data) == 0 {
		return nil
	}

	ts := now.UnixMilli()
	if msg.Timestamp > 0 {
		ts = int64(msg.Timestamp * 1000)
	}

	samples := make([]models.MSignalSample, 0, len(msg.Data))
	taken := 0

	for name, value := range msg.Data {
		if g.maxPerMessage > 0 && taken >= g.maxPerMessage {
			break
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		if !g.Admit(name, now) {
			continue
		}

		samples = append(samples, models.MSignalSample{
			Signal:    strings.ToLower(name),
			Value:     value,
			Timestamp: ts,
		})
		taken++
	}

	return samples
}

// -----------------------------------------------------------------------------

// Admit reports whether a signal passes the lists and its rate limit, and
// records the emit time when it does.
func (g *SignalGate) Admit(signal string, now time.Time) bool {
	key := strings.ToLower(signal)

	if g.allow != nil {
		if _, ok := g.allow[key]; !ok {
			return false
		}
	}
	if g.deny != nil {
		if _, ok := g.deny[key]; ok {
			return false
		}
	}

	if limit, ok := g.limits[key]; ok {
		if last, seen := g.lastEmit[key]; seen && now.Sub(last) < limit {
			return false
		}
		g.lastEmit[key] = now
	}

	return true
}
