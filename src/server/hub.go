package server

import (
	"encoding/json"
	"net/http"

	"can-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()

			// Send full state on connect
			s.stateMutex.RLock()
			if s.latestState != nil {
				client.send <- s.initialResponse(nil)
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()

		case message := <-s.broadcast:
			// Broadcast to all clients
			s.clientsMu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientsMu.Unlock()

		case <-s.done:
			// Shutdown: disconnect everyone and exit the loop
			s.clientsMu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()
			return
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateAllDatas merges a flush-cycle delta into the cached widget state.
// Gauge states replace by title; plot deltas extend the capped server-side
// history.
func (s *DashboardServer) UpdateAllDatas(payload *models.MLatestData) {
	if payload == nil {
		return
	}

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	// 1. Merge gauge states
	if s.latestState.Gauges == nil {
		s.latestState.Gauges = make(map[string]models.MGaugeState)
	}
	for title, state := range payload.Gauges {
		s.latestState.Gauges[title] = state
	}

	// 2. Extend plot histories, honoring the cap
	if s.latestState.Plots == nil {
		s.latestState.Plots = make(map[string][]models.MPlotPoint)
	}
	maxPoints := s.Config.Dispatch.MaxPlotPoints
	for signal, points := range payload.Plots {
		history := append(s.latestState.Plots[signal], points...)
		if maxPoints > 0 && len(history) > maxPoints {
			history = history[len(history)-maxPoints:]
		}
		s.latestState.Plots[signal] = history
	}

	// 3. Update metadata
	s.latestState.Timestamp = payload.Timestamp
	s.latestState.DispatchMetrics = payload.DispatchMetrics
	s.latestState.Type = "UPDATE"
}

// -----------------------------------------------------------------------------

// Broadcast sends a flush-cycle delta to all connected clients (queue)
func (s *DashboardServer) Broadcast(payload *models.MLatestData) {
	if payload == nil {
		return
	}

	// Non-blocking send: with a full queue we drop the delta rather than
	// stall the dispatch loop. Clients resynchronize from the merged state.
	select {
	case s.broadcast <- payload:
	default:
		s.Logger.Warning("Broadcast queue full, dropping update")
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MLatestData, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	s.stateMutex.RLock()
	response := s.initialResponse(cmd.Signals)
	s.stateMutex.RUnlock()

	// Gauge-only and plot-only clients get a trimmed snapshot
	client.clientType = cmd.ClientType
	switch cmd.ClientType {
	case "gauges":
		response.Plots = nil
		response.Messages = nil
	case "plots":
		response.Gauges = nil
		response.Messages = nil
	}

	// Send response to client without blocking the hub
	select {
	case client.send <- response:
	default:
		// Client buffer full; it will resync on its next subscribe
	}
}

// -----------------------------------------------------------------------------
// Response Filtering
// -----------------------------------------------------------------------------

// initialResponse snapshots the cached state, optionally filtered to a set
// of signal names. Caller holds stateMutex.
func (s *DashboardServer) initialResponse(signals []string) *models.MLatestData {
	filteredGauges := make(map[string]models.MGaugeState)
	for title, state := range s.latestState.Gauges {
		if len(signals) == 0 || contains(signals, state.Signal) {
			filteredGauges[title] = state
		}
	}

	filteredPlots := make(map[string][]models.MPlotPoint)
	for signal, history := range s.latestState.Plots {
		if len(signals) == 0 || contains(signals, signal) {
			// Copy so clients never alias the cached slice
			points := make([]models.MPlotPoint, len(history))
			copy(points, history)
			filteredPlots[signal] = points
		}
	}

	var messages []models.MDecodedMessage
	if s.messagesProvider != nil {
		messages = s.messagesProvider()
	}

	return &models.MLatestData{
		Type:            "INITIAL",
		Gauges:          filteredGauges,
		Plots:           filteredPlots,
		Messages:        messages,
		Timestamp:       s.latestState.Timestamp,
		DispatchMetrics: s.latestState.DispatchMetrics,
	}
}

// -----------------------------------------------------------------------------

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
