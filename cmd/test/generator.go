package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// Synthetic Signal Generator
// -----------------------------------------------------------------------------

// FakeTransport feeds generated telemetry through the same interface the
// broker subscriber implements, so the whole pipeline runs without a broker
// or a vehicle.
type FakeTransport struct {
	queue chan *models.MDecodedMessage
}

func NewFakeTransport(depth int) *FakeTransport {
	return &FakeTransport{
		queue: make(chan *models.MDecodedMessage, depth),
	}
}

// -----------------------------------------------------------------------------

func (t *FakeTransport) Start(ctx context.Context) error {
	return nil
}

func (t *FakeTransport) TryReceive() (*models.MDecodedMessage, bool, error) {
	select {
	case msg := <-t.queue:
		return msg, true, nil
	default:
		return nil, false, nil
	}
}

func (t *FakeTransport) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

// Generate emits a plausible drive cycle: engine speed sweeps, vehicle speed
// follows with lag, coolant temperature creeps up and sits. Each frame
// carries all three signals, like a decoded composite message would.
func (t *FakeTransport) Generate(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	frame := 0

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			elapsed := time.Since(start).Seconds()

			rpm := 2500 + 2000*math.Sin(elapsed/3.0) + rand.Float64()*30
			speed := 60 + 45*math.Sin(elapsed/5.0+1.2) + rand.Float64()*0.5
			temp := math.Min(95, 20+elapsed*1.5) + rand.Float64()*0.2

			msg := &models.MDecodedMessage{
				Type:      models.MessageTypeDecoded,
				IDHex:     "0x1A0",
				Name:      fmt.Sprintf("DriveCycle_%d", frame%4),
				Timestamp: float64(time.Now().UnixMilli()) / 1000.0,
				Data: map[string]float64{
					"engine_rpm":    rpm,
					"vehicle_speed": speed,
					"coolant_temp":  temp,
				},
			}
			frame++

			select {
			case t.queue <- msg:
			default:
				// Queue full: the poller is behind, drop like a real bus would
			}
		}
	}
}
