package dispatch

import (
	"context"
	"strings"
	"time"

	"can-dashboard/src/interfaces"
	"can-dashboard/src/logger"
	"can-dashboard/src/models"
	"can-dashboard/src/transport"
	"can-dashboard/src/utils"
	"can-dashboard/src/widgets"

	"github.com/benbjohnson/clock"
)

// -----------------------------------------------------------------------------
// Dispatcher is the single-threaded heart of the dashboard: a cooperative
// loop driven by three periodic triggers.
//
//	poll tick  (fast)  - bounded non-blocking drain of the broker feed
//	gauge tick (fast)  - flush gauge-class entries through the filter
//	plot tick  (slow)  - flush plot-class entries into bounded histories
//
// All buffer, rate-state and widget mutation happens on the loop goroutine;
// nothing here blocks. Only the message table and signal stats carry locks,
// because the HTTP layer reads them concurrently. A signal routed to both a
// gauge and a plot is evaluated separately per destination with separate
// rate state.
// -----------------------------------------------------------------------------

type Dispatcher struct {
	Config *models.MConfig
	Logger *logger.Logger

	clock     clock.Clock
	transport interfaces.ITransport
	gate      *transport.SignalGate
	exchanger interfaces.IDataExchanger
	db        interfaces.IDatabase
	metrics   *Metrics

	buffer      *PendingBuffer
	gaugeStates map[string]*RateState
	plotStates  map[string]*RateState

	// Gauge widgets keyed by lowercase signal alias; several aliases may
	// point at the same widget.
	gauges    map[string]*widgets.GaugeWidget
	gaugeList []*widgets.GaugeWidget

	// Plot widgets created on demand, capped at MaxPlots.
	plots map[string]*widgets.PlotWidget

	table *widgets.MessageTable
	stats *SignalStats

	tallies models.MDispatchMetrics

	gaugeTh Thresholds
	plotTh  Thresholds
}

// -----------------------------------------------------------------------------

// NewDispatcher wires the pipeline. exchanger, db and metrics may be nil
// (headless operation, storage disabled).
func NewDispatcher(
	cfg *models.MConfig,
	log *logger.Logger,
	clk clock.Clock,
	trans interfaces.ITransport,
	gate *transport.SignalGate,
	exchanger interfaces.IDataExchanger,
	db interfaces.IDatabase,
	metrics *Metrics,
) *Dispatcher {
	d := &Dispatcher{
		Config:      cfg,
		Logger:      log,
		clock:       clk,
		transport:   trans,
		gate:        gate,
		exchanger:   exchanger,
		db:          db,
		metrics:     metrics,
		buffer:      NewPendingBuffer(),
		gaugeStates: make(map[string]*RateState),
		plotStates:  make(map[string]*RateState),
		gauges:      make(map[string]*widgets.GaugeWidget),
		plots:       make(map[string]*widgets.PlotWidget),
		table:       widgets.NewMessageTable(cfg.Dispatch.TableBufferSize),
		stats:       NewSignalStats(),
		gaugeTh: Thresholds{
			Immediate: cfg.Dispatch.ImmediateThreshold,
			Skip:      cfg.Dispatch.SkipThreshold,
			// Normal gauge flushes are gated only by the cycle itself.
			MinInterval: time.Duration(cfg.Dispatch.GaugeIntervalMs) * time.Millisecond,
		},
		plotTh: Thresholds{
			Immediate:   cfg.Dispatch.ImmediateThreshold,
			Skip:        cfg.Dispatch.SkipThreshold,
			MinInterval: time.Duration(cfg.Dispatch.MinUpdateIntervalMs) * time.Millisecond,
		},
	}

	for _, spec := range cfg.Gauges {
		g := widgets.NewGaugeWidget(spec)
		d.gaugeList = append(d.gaugeList, g)
		for _, alias := range spec.SignalNames {
			d.gauges[strings.ToLower(alias)] = g
		}
	}

	return d
}

// -----------------------------------------------------------------------------

// Run drives the loop until ctx is cancelled. Blocking call.
func (d *Dispatcher) Run(ctx context.Context) {
	poll := d.clock.Ticker(time.Duration(d.Config.Poller.PollIntervalMs) * time.Millisecond)
	gauge := d.clock.Ticker(time.Duration(d.Config.Dispatch.GaugeIntervalMs) * time.Millisecond)
	plot := d.clock.Ticker(time.Duration(d.Config.Dispatch.PlotIntervalMs) * time.Millisecond)
	defer poll.Stop()
	defer gauge.Stop()
	defer plot.Stop()

	d.Logger.Info("Dispatch loop started (poll %dms, gauge %dms, plot %dms)",
		d.Config.Poller.PollIntervalMs, d.Config.Dispatch.GaugeIntervalMs, d.Config.Dispatch.PlotIntervalMs)

	for {
		select {
		case <-ctx.Done():
			d.Logger.Info("Dispatch loop stopped")
			return
		case <-poll.C:
			d.pollOnce()
		case <-gauge.C:
			d.flushGauges()
		case <-plot.C:
			d.flushPlots()
		}
	}
}

// -----------------------------------------------------------------------------
// Poll cycle
// -----------------------------------------------------------------------------

// pollOnce drains up to the per-tick work budget from the transport. An
// empty queue or a transport hiccup yields zero messages this tick; the next
// tick tries again. Returns the number of messages taken off the feed.
func (d *Dispatcher) pollOnce() int {
	budget := d.Config.Poller.MaxMessagesPerCycle
	if d.Config.Poller.BacklogStrategy == utils.BacklogCollapseLatest {
		// Collapse mode drains deeper; the buffer's overwrite semantics
		// keep only the latest value per signal anyway.
		budget = d.Config.Poller.MaxDrainPerPoll
	}

	drained := 0
	for drained < budget {
		msg, ok, err := d.transport.TryReceive()
		if err != nil {
			// One malformed message dropped; it still consumed a slot.
			drained++
			d.tallies.DroppedMalformed++
			if d.metrics != nil {
				d.metrics.DroppedMalformed.Inc()
			}
			d.Logger.Debug("Dropped malformed message: %v", err)
			continue
		}
		if !ok {
			break
		}

		drained++
		d.ingest(msg)
	}

	if d.metrics != nil {
		d.metrics.PendingEntries.WithLabelValues(ClassGauge.String()).Set(float64(d.buffer.Len(ClassGauge)))
		d.metrics.PendingEntries.WithLabelValues(ClassPlot.String()).Set(float64(d.buffer.Len(ClassPlot)))
	}

	return drained
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) ingest(msg *models.MDecodedMessage) {
	d.tallies.MessagesReceived++
	if d.metrics != nil {
		d.metrics.MessagesReceived.Inc()
	}

	d.table.Add(*msg)

	samples := d.gate.Extract(msg, d.clock.Now())
	for _, s := range samples {
		if _, isGauge := d.gauges[s.Signal]; isGauge {
			d.buffer.Put(ClassGauge, s)
		}
		// Every admitted signal is plottable until the plot cap is hit.
		d.buffer.Put(ClassPlot, s)

		d.stats.Observe(s)
		d.tallies.SamplesBuffered++
		if d.metrics != nil {
			d.metrics.SamplesBuffered.Inc()
		}
	}
}

// -----------------------------------------------------------------------------
// Gauge cycle (fast)
// -----------------------------------------------------------------------------

func (d *Dispatcher) flushGauges() {
	now := d.clock.Now()
	d.tallies.GaugeCycles++

	var flushed []models.MSignalSample

	for signal, sample := range d.buffer.Entries(ClassGauge) {
		g, ok := d.gauges[signal]
		if !ok {
			d.buffer.Remove(ClassGauge, signal)
			continue
		}

		st := d.gaugeStates[signal]
		if st == nil {
			st = &RateState{}
			d.gaugeStates[signal] = st
		}

		switch Evaluate(sample, *st, g.Range(), d.gaugeTh, now) {
		case FlushImmediate:
			g.Apply(signal, sample.Value, sample.Timestamp, true)
			st.MarkFlushed(sample.Value, now)
			d.buffer.Remove(ClassGauge, signal)
			flushed = append(flushed, sample)
			d.tallies.FlushedImmediate++
			if d.metrics != nil {
				d.metrics.FlushedImmediate.Inc()
			}

		case FlushNormal:
			g.Apply(signal, sample.Value, sample.Timestamp, false)
			st.MarkFlushed(sample.Value, now)
			d.buffer.Remove(ClassGauge, signal)
			flushed = append(flushed, sample)
			d.tallies.FlushedNormal++
			if d.metrics != nil {
				d.metrics.FlushedNormal.Inc()
			}

		case Skip:
			// Absorbed: the change is imperceptible, rate state untouched.
			d.buffer.Remove(ClassGauge, signal)
			d.tallies.Skipped++
			if d.metrics != nil {
				d.metrics.Skipped.Inc()
			}

		case Defer:
			// Retained for the next cycle.
			d.tallies.Deferred++
			if d.metrics != nil {
				d.metrics.Deferred.Inc()
			}
		}
	}

	// Paint cycle: coalesce all normal applies into one repaint per gauge.
	for _, g := range d.gaugeList {
		g.Repaint()
	}

	if len(flushed) > 0 {
		d.archive(flushed)
		d.publish(now)
	}
}

// -----------------------------------------------------------------------------
// Plot cycle (slow)
// -----------------------------------------------------------------------------

func (d *Dispatcher) flushPlots() {
	now := d.clock.Now()
	d.tallies.PlotCycles++

	var flushed []models.MSignalSample
	appended := make(map[string][]models.MPlotPoint)

	for signal, sample := range d.buffer.Entries(ClassPlot) {
		p := d.plots[signal]
		if p == nil {
			if len(d.plots) >= d.Config.Dispatch.MaxPlots {
				// Plot grid is full; this signal never gets a plot.
				d.buffer.Remove(ClassPlot, signal)
				continue
			}
			p = widgets.NewPlotWidget(signal, d.Config.Dispatch.MaxPlotPoints)
			d.plots[signal] = p
		}

		st := d.plotStates[signal]
		if st == nil {
			st = &RateState{}
			d.plotStates[signal] = st
		}

		// Plots have no configured range; use the observed spread. An
		// unknown spread degrades to "always flush".
		rng := d.stats.Range(signal)

		dec := Evaluate(sample, *st, rng, d.plotTh, now)
		switch dec {
		case FlushImmediate, FlushNormal:
			p.Append(sample.Timestamp, sample.Value)
			st.MarkFlushed(sample.Value, now)
			d.buffer.Remove(ClassPlot, signal)
			flushed = append(flushed, sample)
			appended[signal] = append(appended[signal], models.MPlotPoint{
				Timestamp: sample.Timestamp,
				Value:     sample.Value,
			})
			if dec == FlushImmediate {
				d.tallies.FlushedImmediate++
				if d.metrics != nil {
					d.metrics.FlushedImmediate.Inc()
				}
			} else {
				d.tallies.FlushedNormal++
				if d.metrics != nil {
					d.metrics.FlushedNormal.Inc()
				}
			}

		case Skip:
			d.buffer.Remove(ClassPlot, signal)
			d.tallies.Skipped++
			if d.metrics != nil {
				d.metrics.Skipped.Inc()
			}

		case Defer:
			d.tallies.Deferred++
			if d.metrics != nil {
				d.metrics.Deferred.Inc()
			}
		}
	}

	if len(flushed) > 0 {
		d.archive(flushed)
		d.publishPlots(now, appended)
	}
}

// -----------------------------------------------------------------------------
// Outbound
// -----------------------------------------------------------------------------

// publish pushes the current gauge states to the rendering layer.
func (d *Dispatcher) publish(now time.Time) {
	if d.exchanger == nil {
		return
	}

	payload := &models.MLatestData{
		Type:            "UPDATE",
		Gauges:          d.GaugeStates(),
		Timestamp:       now.UnixMilli(),
		DispatchMetrics: d.tallies,
	}
	d.exchanger.UpdateAllDatas(payload)
	d.exchanger.Broadcast(payload)
}

// -----------------------------------------------------------------------------

// publishPlots pushes only the points appended this cycle; clients extend
// their local history, the server keeps the capped authoritative copy.
func (d *Dispatcher) publishPlots(now time.Time, appended map[string][]models.MPlotPoint) {
	if d.exchanger == nil {
		return
	}

	payload := &models.MLatestData{
		Type:            "UPDATE",
		Plots:           appended,
		Timestamp:       now.UnixMilli(),
		DispatchMetrics: d.tallies,
	}
	d.exchanger.UpdateAllDatas(payload)
	d.exchanger.Broadcast(payload)
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) archive(samples []models.MSignalSample) {
	if d.db == nil {
		return
	}
	if err := d.db.SaveSignalSamplesBulk(samples); err != nil {
		d.Logger.Warning("Archive enqueue failed: %v", err)
	}
}

// -----------------------------------------------------------------------------
// Accessors (rendering layer, harness, tests)
// -----------------------------------------------------------------------------

// GaugeStates snapshots all configured gauges keyed by title.
func (d *Dispatcher) GaugeStates() map[string]models.MGaugeState {
	out := make(map[string]models.MGaugeState, len(d.gaugeList))
	for _, g := range d.gaugeList {
		out[g.Spec.Title] = g.State()
	}
	return out
}

// PlotHistories snapshots all live plot histories keyed by signal.
func (d *Dispatcher) PlotHistories() map[string][]models.MPlotPoint {
	out := make(map[string][]models.MPlotPoint, len(d.plots))
	for signal, p := range d.plots {
		out[signal] = p.History()
	}
	return out
}

// Messages returns the retained message table rows.
func (d *Dispatcher) Messages() []models.MDecodedMessage {
	return d.table.Rows()
}

// Tallies returns the pipeline counters.
func (d *Dispatcher) Tallies() models.MDispatchMetrics {
	return d.tallies
}

// Stats returns the per-signal running statistics.
func (d *Dispatcher) Stats() []models.MSignalStats {
	return d.stats.Snapshot()
}
