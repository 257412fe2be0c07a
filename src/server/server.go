package server

import (
	"fmt"
	"strings"
	"sync"

	"can-dashboard/src/logger"
	"can-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Registry *prometheus.Registry
	engine   *gin.Engine

	// WebSocket clients. The hub goroutine owns the map; the mutex covers
	// the connection count read by the health endpoint.
	clients    map[*Client]struct{}
	clientsMu  sync.Mutex
	broadcast  chan *models.MLatestData // Strongly typed and buffered queue
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Local cache of the widget state
	latestState *models.MLatestData
	stateMutex  sync.RWMutex

	// Optional providers backed by the dispatcher
	statsProvider    func() []models.MSignalStats
	messagesProvider func() []models.MDecodedMessage

	// Optional forwarder to the backend command channel
	commandHandler func(command string, args map[string]interface{}) (*models.MCommandResponse, error)
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, log *logger.Logger) *DashboardServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:   cfg,
		Logger:   log,
		Registry: prometheus.NewRegistry(),
		engine:   gin.Default(),
		clients:  make(map[*Client]struct{}),
		// Buffered channel so flush cycles never block on slow clients.
		// Queue size of 256 absorbs bursts of updates.
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latestState: &models.MLatestData{
			Type:   "INITIAL",
			Gauges: make(map[string]models.MGaugeState),
			Plots:  make(map[string][]models.MPlotPoint),
		},
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Providers
// -----------------------------------------------------------------------------

// SetStatsProvider installs the per-signal statistics source for /api/metrics
func (s *DashboardServer) SetStatsProvider(fn func() []models.MSignalStats) {
	s.statsProvider = fn
}

// SetMessagesProvider installs the message table source for /api/messages
func (s *DashboardServer) SetMessagesProvider(fn func() []models.MDecodedMessage) {
	s.messagesProvider = fn
}

// SetCommandHandler installs the forwarder for POST /api/command
func (s *DashboardServer) SetCommandHandler(fn func(command string, args map[string]interface{}) (*models.MCommandResponse, error)) {
	s.commandHandler = fn
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/messages", s.getMessages)
	s.engine.POST("/api/command", s.postCommand)

	// Prometheus scrape endpoint
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *DashboardServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting dashboard server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop() error {
	// Signal the hub loop; it disconnects the remaining clients on the
	// way out. Pumps that race the shutdown select on done instead of
	// sending into a closed channel.
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DashboardServer) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	metrics := s.latestState.DispatchMetrics
	s.stateMutex.RUnlock()

	resp := gin.H{"dispatch": metrics}
	if s.statsProvider != nil {
		resp["signals"] = s.statsProvider()
	}
	c.JSON(200, resp)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	// Expose the tuning surface the dashboard UI cares about
	c.JSON(200, gin.H{
		"dispatch": s.Config.Dispatch,
		"poller":   s.Config.Poller,
		"gauges":   s.Config.Gauges,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	s.clientsMu.Lock()
	connections := len(s.clients)
	s.clientsMu.Unlock()

	s.stateMutex.RLock()
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getMessages(c *gin.Context) {
	if s.messagesProvider == nil {
		c.JSON(200, []models.MDecodedMessage{})
		return
	}
	c.JSON(200, s.messagesProvider())
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) postCommand(c *gin.Context) {
	if s.commandHandler == nil {
		c.JSON(503, gin.H{"error": "command channel not available"})
		return
	}

	var req struct {
		Command string                 `json:"command"`
		Args    map[string]interface{} `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if req.Command == "" {
		c.JSON(400, gin.H{"error": "command is required"})
		return
	}

	resp, err := s.commandHandler(req.Command, req.Args)
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, resp)
}
