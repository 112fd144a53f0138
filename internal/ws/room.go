package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"whiteboard-service/internal/database"
	"whiteboard-service/internal/domain"
	"whiteboard-service/internal/metrics"
	"whiteboard-service/internal/repository"
	"whiteboard-service/internal/service"
)

// session is the outbound side of one connection as the room sees it.
// *Client implements it; tests substitute their own.
type session interface {
	ID() string
	Enqueue(msg []byte) bool
	Close()
}

// member is one participant's live state inside a room. Owned exclusively
// by the room goroutine.
type member struct {
	sess       session
	username   string
	role       domain.Role
	color      string
	joinedAt   time.Time
	lastActive time.Time
	cursor     *domain.Cursor
	history    domain.HistoryCursor
}

type inboundEvent struct {
	sess session
	typ  string
	data map[string]any
}

// Room owns all mutable state for one board: the membership table, the
// cursor table and the broadcast fan-out. A single goroutine drains the
// inbound queue, so events for one board apply in arrival order with no
// locks; different boards run in parallel.
type Room struct {
	boardID    string
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

	inbound chan inboundEvent
	relay   chan []byte
	done    chan struct{}

	members  map[string]*member
	sessions map[session]*member

	// Read by the hub's reaper without entering the actor.
	memberCount  atomic.Int64
	pendingJoins atomic.Int64
	idleSince    atomic.Int64
}

func newRoom(boardID string, h *Hub) *Room {
	r := &Room{
		boardID:         boardID,
		instanceID:      h.instanceID,
		canvas:          h.canvas,
		colors:          h.colors,
		participants:    h.participants,
		events:          h.events,
		redis:           h.redis,
		logger:          h.logger.With(zap.String("board_id", boardID)),
		metrics:         h.metrics,
		livenessTimeout: h.livenessTimeout,
		sweepInterval:   h.sweepInterval,
		inbound:         make(chan inboundEvent, 256),
		relay:           make(chan []byte, 64),
		done:            make(chan struct{}),
		members:         make(map[string]*member),
		sessions:        make(map[session]*member),
	}
	r.idleSince.Store(time.Now().UnixNano())
	return r
}

// Deliver queues an event for the room actor.
func (r *Room) Deliver(sess session, typ string, data map[string]any) {
	select {
	case r.inbound <- inboundEvent{sess: sess, typ: typ, data: data}:
	case <-r.done:
	}
}

func (r *Room) run() {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	go r.subscribeRelay()

	for {
		select {
		case ev := <-r.inbound:
			r.dispatch(ev)
		case payload := <-r.relay:
			r.fanoutLocal(payload)
		case <-ticker.C:
			r.sweep(time.Now().UTC())
		case <-r.done:
			return
		}
	}
}

func (r *Room) stop() {
	close(r.done)
}

func (r *Room) dispatch(ev inboundEvent) {
	r.metrics.EventsTotal.WithLabelValues(ev.typ).Inc()

	if ev.typ == EventJoinBoard {
		r.handleJoin(ev)
		return
	}
	if ev.typ == eventLeave {
		r.handleLeave(ev.sess)
		return
	}

	m, ok := r.sessions[ev.sess]
	if !ok {
		return
	}
	r.touch(m)

	switch ev.typ {
	case EventDraw:
		r.handleDraw(m, ev)
	case EventSaveCanvas:
		r.handleSaveCanvas(m, ev)
	case EventClearBoard:
		r.handleClearBoard(m)
	case EventCursorMove:
		r.handleCursorMove(m, ev)
	case EventChangeRole:
		r.handleChangeRole(m, ev)
	case EventHeartbeat:
		r.persistTouch(m)
	case EventUndo:
		r.handleHistoryStep(m, -1)
	case EventRedo:
		r.handleHistoryStep(m, +1)
	default:
		r.logger.Warn("Unknown event type", zap.String("type", ev.typ))
	}
}

// permit runs the capability check; denials are dropped silently, only a
// metric records them.
func (r *Room) permit(m *member, action domain.Action) bool {
	if domain.Permit(m.role, action) {
		return true
	}
	r.metrics.EventsDenied.WithLabelValues(string(action)).Inc()
	return false
}

func (r *Room) handleJoin(ev inboundEvent) {
	r.pendingJoins.Add(-1)

	username := str(ev.data, "username")
	now := time.Now().UTC()

	m, rejoin := r.members[username]
	if rejoin {
		// Same username again: refresh, never duplicate. A replaced
		// connection is torn down so it cannot keep receiving broadcasts.
		if m.sess != nil && m.sess != ev.sess {
			delete(r.sessions, m.sess)
			m.sess.Close()
		}
	} else {
		m = &member{
			username: username,
			joinedAt: now,
			history:  domain.NewHistoryCursor(len(r.canvas.History(context.Background(), r.boardID))),
		}
		r.members[username] = m
	}

	if role := domain.Role(str(ev.data, "role")); role.Valid() {
		m.role = role
	} else if m.role == "" {
		m.role = domain.RoleEditor
	}
	if color := str(ev.data, "color"); color != "" {
		m.color = color
	} else if m.color == "" {
		m.color = r.colors.Next()
	}
	m.sess = ev.sess
	m.lastActive = now
	r.sessions[ev.sess] = m
	r.memberCount.Store(int64(len(r.members)))

	row := domain.Participant{
		Username:   m.username,
		BoardID:    r.boardID,
		Role:       m.role,
		Color:      m.color,
		SocketID:   ev.sess.ID(),
		LastActive: now,
	}
	r.persistAsync("join", func(ctx context.Context) error {
		return r.participants.Upsert(ctx, &row)
	})

	info := r.userInfo(m)

	// The joiner alone gets the current snapshot; everyone else only
	// learns that somebody arrived.
	ev.sess.Enqueue(joinedBoardMsg(r.canvas.Snapshot(context.Background(), r.boardID), info))
	r.broadcast(userJoinedMsg(info), ev.sess)
	r.broadcastUsersUpdate()

	r.logger.Info("participant joined",
		zap.String("username", username),
		zap.String("role", string(m.role)),
		zap.Bool("rejoin", rejoin))
}

func (r *Room) handleLeave(sess session) {
	m, ok := r.sessions[sess]
	if !ok {
		// Leaving twice, or a connection replaced by a rejoin.
		return
	}
	delete(r.sessions, sess)
	if m.sess == sess {
		m.sess = nil
		m.cursor = nil
		delete(r.members, m.username)
	}
	r.memberCount.Store(int64(len(r.members)))
	if len(r.members) == 0 {
		r.idleSince.Store(time.Now().UnixNano())
	}

	username := m.username
	now := time.Now().UTC()
	r.persistAsync("leave", func(ctx context.Context) error {
		return r.participants.ClearSocket(ctx, r.boardID, username, now)
	})

	r.broadcast(userLeftMsg(username), nil)
	r.broadcastUsersUpdate()

	r.logger.Info("participant left", zap.String("username", m.username))
}

func (r *Room) handleDraw(m *member, ev inboundEvent) {
	if !r.permit(m, domain.ActionDraw) {
		return
	}

	// Pass the payload through untouched, stamped with author identity.
	out := make(map[string]any, len(ev.data)+2)
	for k, v := range ev.data {
		out[k] = v
	}
	out["username"] = m.username
	out["color"] = m.color
	r.broadcast(marshal(out), ev.sess)

	username := m.username
	r.persistAsync("event-log", func(ctx context.Context) error {
		return r.events.Append(ctx, &domain.DrawingEvent{
			BoardID:  r.boardID,
			Username: username,
			Action:   EventDraw,
			Payload:  ev.data,
		})
	})
}

func (r *Room) handleSaveCanvas(m *member, ev inboundEvent) {
	if !r.permit(m, domain.ActionSaveCanvas) {
		return
	}

	canvasData := str(ev.data, "canvasData")
	if err := r.canvas.Save(context.Background(), r.boardID, canvasData); err != nil {
		// Nothing was committed, so nothing is announced.
		r.logger.Warn("canvas save rejected",
			zap.String("username", m.username),
			zap.Error(err))
		return
	}

	// The saver's history position jumps to the entry it just created.
	m.history = domain.NewHistoryCursor(len(r.canvas.History(context.Background(), r.boardID)))

	r.broadcast(canvasUpdatedMsg(r.canvas.Snapshot(context.Background(), r.boardID)), ev.sess)
}

func (r *Room) handleClearBoard(m *member) {
	if !r.permit(m, domain.ActionClearBoard) {
		return
	}

	r.canvas.Clear(context.Background(), r.boardID)
	for _, other := range r.members {
		other.history = other.history.Reset()
	}

	// Uniform reset: the sender hears it too.
	r.broadcast(boardClearedMsg(m.username), nil)

	r.logger.Info("board cleared", zap.String("username", m.username))
}

func (r *Room) handleCursorMove(m *member, ev inboundEvent) {
	if !r.permit(m, domain.ActionCursorMove) {
		return
	}

	cursor := domain.Cursor{
		X:        num(ev.data, "x"),
		Y:        num(ev.data, "y"),
		Username: m.username,
		Color:    m.color,
		SocketID: ev.sess.ID(),
	}
	m.cursor = &cursor
	r.broadcast(cursorUpdateMsg(cursor), ev.sess)
}

func (r *Room) handleChangeRole(m *member, ev inboundEvent) {
	if !r.permit(m, domain.ActionChangeRole) {
		return
	}

	target := str(ev.data, "username")
	newRole := domain.Role(str(ev.data, "newRole"))
	if target == "" || !newRole.Valid() {
		return
	}

	// The in-memory entry gates the target's next action immediately; the
	// row update follows behind.
	if tm, ok := r.members[target]; ok {
		tm.role = newRole
	}
	r.persistAsync("change-role", func(ctx context.Context) error {
		return r.participants.UpdateRole(ctx, r.boardID, target, newRole)
	})

	// Authoritative broadcast, target and actor included.
	r.broadcast(roleChangedMsg(target, newRole, m.username), nil)

	r.logger.Info("role changed",
		zap.String("username", target),
		zap.String("new_role", string(newRole)),
		zap.String("changed_by", m.username))
}

func (r *Room) handleHistoryStep(m *member, delta int) {
	history := r.canvas.History(context.Background(), r.boardID)
	next, moved := m.history.Step(delta, len(history))
	m.history = next
	if !moved {
		return
	}
	if m.sess != nil {
		m.sess.Enqueue(historySnapshotMsg(history[next.Pos()], next.Pos()))
	}
}

// sweep evicts members whose last activity exceeds the liveness timeout.
// This is the only recovery from connections that vanish without a close
// frame.
func (r *Room) sweep(now time.Time) {
	var evicted []*member
	for username, m := range r.members {
		if now.Sub(m.lastActive) <= r.livenessTimeout {
			continue
		}
		if m.sess != nil {
			delete(r.sessions, m.sess)
			m.sess.Close()
			m.sess = nil
		}
		delete(r.members, username)
		evicted = append(evicted, m)
	}
	if len(evicted) == 0 {
		return
	}

	r.memberCount.Store(int64(len(r.members)))
	if len(r.members) == 0 {
		r.idleSince.Store(time.Now().UnixNano())
	}
	r.metrics.ParticipantsSwept.Add(float64(len(evicted)))

	for _, m := range evicted {
		r.logger.Info("participant swept",
			zap.String("username", m.username),
			zap.Time("last_active", m.lastActive))
		r.broadcast(userLeftMsg(m.username), nil)
	}
	r.broadcastUsersUpdate()
}

// touch refreshes liveness in memory only. Drawing and cursor traffic
// arrives at mouse-move frequency; writing each refresh through would
// mean one row UPDATE per event. The durable timestamp converges on the
// next heartbeat, join or disconnect instead.
func (r *Room) touch(m *member) {
	m.lastActive = time.Now().UTC()
}

func (r *Room) persistTouch(m *member) {
	username := m.username
	at := m.lastActive
	r.persistAsync("touch", func(ctx context.Context) error {
		return r.participants.Touch(ctx, r.boardID, username, at)
	})
}

// activeMembers recomputes the liveness-filtered membership on every
// call, ordered by join time.
func (r *Room) activeMembers(now time.Time) []UserInfo {
	users := make([]UserInfo, 0, len(r.members))
	for _, m := range r.members {
		if now.Sub(m.lastActive) > r.livenessTimeout {
			continue
		}
		users = append(users, r.userInfo(m))
	}
	// Insertion sort by join time; rooms are small.
	for i := 1; i < len(users); i++ {
		for j := i; j > 0 && r.joinedBefore(users[j].Username, users[j-1].Username); j-- {
			users[j], users[j-1] = users[j-1], users[j]
		}
	}
	return users
}

func (r *Room) joinedBefore(a, b string) bool {
	ma, oka := r.members[a]
	mb, okb := r.members[b]
	if !oka || !okb {
		return false
	}
	return ma.joinedAt.Before(mb.joinedAt)
}

func (r *Room) userInfo(m *member) UserInfo {
	return UserInfo{
		Username:   m.username,
		Role:       m.role,
		Color:      m.color,
		LastActive: m.lastActive,
	}
}

// broadcastUsersUpdate sends the full membership list to local members
// only. The list covers this instance's members, so relaying it would
// overwrite remote clients' view with a partial roster; each instance
// reports its own.
func (r *Room) broadcastUsersUpdate() {
	r.fanout(usersUpdateMsg(r.activeMembers(time.Now().UTC())), nil)
}

// broadcast fans a message out to current members, optionally excluding
// the sender, and relays it over Redis for members connected to other
// instances.
func (r *Room) broadcast(payload []byte, exclude session) {
	r.fanout(payload, exclude)
	r.publishRelay(payload)
}

// fanout delivers to local members. Connections with a full send buffer
// are treated as dead and dropped; there are no retries.
func (r *Room) fanout(payload []byte, exclude session) {
	var failed []session
	n := 0
	for sess := range r.sessions {
		if sess == exclude {
			continue
		}
		if sess.Enqueue(payload) {
			n++
		} else {
			failed = append(failed, sess)
		}
	}
	r.metrics.BroadcastFanout.Observe(float64(n))

	for _, sess := range failed {
		r.logger.Warn("dropping unresponsive connection", zap.String("socket_id", sess.ID()))
		sess.Close()
		r.handleLeave(sess)
	}
}

// fanoutLocal delivers a message relayed from another instance to every
// local member. Sender exclusion already happened on the origin instance.
func (r *Room) fanoutLocal(payload []byte) {
	for sess := range r.sessions {
		sess.Enqueue(payload)
	}
}

func (r *Room) publishRelay(payload []byte) {
	if r.redis == nil {
		return
	}
	env := marshal(relayEnvelope{Origin: r.instanceID, Payload: payload})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.PublishBoardEvent(ctx, r.redis, r.boardID, env); err != nil {
			r.logger.Warn("relay publish failed", zap.Error(err))
		}
	}()
}

func (r *Room) subscribeRelay() {
	pubsub := database.SubscribeBoardEvents(context.Background(), r.redis, r.boardID)
	if pubsub == nil {
		return
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-r.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("malformed relay message", zap.Error(err))
				continue
			}
			if env.Origin == r.instanceID {
				continue
			}
			select {
			case r.relay <- env.Payload:
			case <-r.done:
				return
			}
		}
	}
}

// persistAsync runs a persistence call without holding up the actor or
// the triggering client. Failures are logged and counted, never retried
// and never rolled back.
func (r *Room) persistAsync(op string, fn func(ctx context.Context) error) {
	logger := r.logger
	m := r.metrics
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.PersistenceFailures.WithLabelValues(op).Inc()
			logger.Error("persistence failed", zap.String("op", op), zap.Error(err))
		}
	}()
}
