package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"whiteboard-service/internal/metrics"
	"whiteboard-service/internal/repository"
	"whiteboard-service/internal/service"
)

// How long an empty room survives before its goroutine is reclaimed.
const roomIdleTimeout = 5 * time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub owns the board rooms. It creates a room actor on first join, hands
// connections to it and reaps rooms that have been empty for a while. All
// per-board state lives inside the rooms; the hub itself only holds the
// registry.
type Hub struct {
	instanceID string

	canvas       *service.CanvasService
	colors       *service.ColorGenerator
	participants repository.ParticipantRepository
	events       repository.EventRepository
	redis        *redis.Client
	logger       *zap.Logger
	metrics      *metrics.Metrics

	livenessTimeout time.Duration
	sweepInterval   time.Duration

	mu    sync.Mutex
	rooms map[string]*Room

	done      chan struct{}
	closeOnce sync.Once
}

// HubConfig carries everything a hub needs; all fields except Redis are
// required.
type HubConfig struct {
	Canvas          *service.CanvasService
	Colors          *service.ColorGenerator
	Participants    repository.ParticipantRepository
	Events          repository.EventRepository
	Redis           *redis.Client
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
	LivenessTimeout time.Duration
	SweepInterval   time.Duration
}

func NewHub(cfg HubConfig) *Hub {
	h := &Hub{
		instanceID:      uuid.New().String(),
		canvas:          cfg.Canvas,
		colors:          cfg.Colors,
		participants:    cfg.Participants,
		events:          cfg.Events,
		redis:           cfg.Redis,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		livenessTimeout: cfg.LivenessTimeout,
		sweepInterval:   cfg.SweepInterval,
		rooms:           make(map[string]*Room),
		done:            make(chan struct{}),
	}
	go h.reapIdleRooms()
	return h
}

// join routes a connection into the room for boardID, creating the room
// if needed, and queues the join event. The pending-join counter keeps
// the reaper from collecting a room between creation and the actor
// processing the join.
func (h *Hub) join(sess session, boardID string, data map[string]any) *Room {
	h.mu.Lock()
	r, ok := h.rooms[boardID]
	if !ok {
		r = newRoom(boardID, h)
		h.rooms[boardID] = r
		h.metrics.RoomsActive.Inc()
		go r.run()
		h.logger.Info("room opened", zap.String("board_id", boardID))
	}
	r.pendingJoins.Add(1)
	h.mu.Unlock()

	r.Deliver(sess, EventJoinBoard, data)
	return r
}

// HandleWebSocket upgrades the HTTP request and starts the connection
// pumps. GET /ws
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:     uuid.New().String(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: h.logger,
	}
	h.metrics.ConnectionsActive.Inc()

	go client.writePump()
	go client.readPump()
}

func (h *Hub) reapIdleRooms() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.reapOnce(time.Now())
		}
	}
}

func (h *Hub) reapOnce(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for boardID, r := range h.rooms {
		if r.memberCount.Load() > 0 || r.pendingJoins.Load() > 0 {
			continue
		}
		if now.Sub(time.Unix(0, r.idleSince.Load())) < roomIdleTimeout {
			continue
		}
		r.stop()
		delete(h.rooms, boardID)
		h.metrics.RoomsActive.Dec()
		h.logger.Info("room reaped", zap.String("board_id", boardID))
	}
}

// Rooms reports how many rooms are currently open.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close stops every room actor and the reaper. Connections are torn down
// by their own pumps once the rooms stop answering.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for boardID, r := range h.rooms {
			r.stop()
			delete(h.rooms, boardID)
		}
	})
}
