package multiplayer

import "sync"

// SessionHandle is how the room reaches a connected client. The WebSocket and
// SSH front ends both satisfy it, so the room never touches a connection.
type SessionHandle interface {
	ID() SessionID

	// Send queues a state or dialogue event. It is called from the room
	// goroutine and must never block it.
	Send(evt SessionEvent)

	// Done closes when the client is gone.
	Done() <-chan struct{}
}

// ChannelSession buffers room events for one client. A transport pump drains
// Events and writes each event to its connection.
type ChannelSession struct {
	id     SessionID
	events chan SessionEvent
	done   chan struct{}
	once   sync.Once
}

const defaultEventBuffer = 64

// NewChannelSession returns a session holding up to bufferSize undelivered
// events. Values below one fall back to 64.
func NewChannelSession(id SessionID, bufferSize int) *ChannelSession {
	if bufferSize < 1 {
		bufferSize = defaultEventBuffer
	}
	return &ChannelSession{
		id:     id,
		events: make(chan SessionEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

func (s *ChannelSession) ID() SessionID {
	return s.id
}

// Send enqueues evt. When the client has fallen behind and the buffer is
// full, the oldest queued event is discarded to make room. A lagging client
// therefore skips stale snapshots and still receives the newest one. Events
// sent after Close are ignored.
func (s *ChannelSession) Send(evt SessionEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
		return
	default:
	}

	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- evt:
	default:
	}
}

// Events is drained by the transport's write pump.
func (s *ChannelSession) Events() <-chan SessionEvent {
	return s.events
}

func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close ends the session. Repeated calls are no-ops.
func (s *ChannelSession) Close() {
	s.once.Do(func() { close(s.done) })
}

// SessionRegistry is the set of clients attached to a room. The room
// goroutine broadcasts through it while transports attach and detach
// concurrently.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionHandle
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[SessionID]SessionHandle)}
}

// Register adds session, replacing any earlier session with the same id.
func (r *SessionRegistry) Register(session SessionHandle) {
	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()
}

func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count is the number of attached clients. The room discards its engine when
// it drops to zero.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast delivers evt to every attached client. Send never blocks, so one
// slow client cannot stall the tick.
func (r *SessionRegistry) Broadcast(evt SessionEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		s.Send(evt)
	}
}
