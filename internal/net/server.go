package net

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server accepts websocket connections and hands fresh sessions to the
// game loop through the NewSessions channel. Dead sessions are reported
// on DeadSessions after the input system finishes draining them.
type Server struct {
	bind     string
	httpSrv  *http.Server
	upgrader websocket.Upgrader

	inSize, outSize            int
	readTimeout, writeTimeout  time.Duration

	nextID      atomic.Uint64
	newSessions chan *Session
	dead        chan uint64

	log *zap.Logger
}

func NewServer(bind string, inSize, outSize int, readTimeout, writeTimeout time.Duration, log *zap.Logger) *Server {
	return &Server{
		bind: bind,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		inSize:       inSize,
		outSize:      outSize,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		newSessions:  make(chan *Session, 16),
		dead:         make(chan uint64, 16),
		log:          log,
	}
}

func (s *Server) NewSessions() <-chan *Session { return s.newSessions }
func (s *Server) DeadSessions() <-chan uint64  { return s.dead }

// NotifyDead reports a fully cleaned-up session back to the server.
func (s *Server) NotifyDead(id uint64) {
	select {
	case s.dead <- id:
	default:
	}
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.inSize, s.outSize, s.readTimeout, s.writeTimeout, s.log)
	sess.Start()
	select {
	case s.newSessions <- sess:
		s.log.Info("client connected", zap.Uint64("session", id), zap.String("ip", sess.IP))
	default:
		s.log.Warn("session accept queue full, rejecting client", zap.String("ip", sess.IP))
		sess.Close()
	}
}

// Listen starts serving; blocks until the listener fails or ctx ends.
func (s *Server) Listen(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Addr: s.bind, Handler: mux}

	var wg sync.WaitGroup
	wg.Add(1)
	errCh := make(chan error, 1)
	go func() {
		defer wg.Done()
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen on %s: %w", s.bind, err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		wg.Wait()
		return nil
	case err := <-errCh:
		return err
	}
}

// SessionStore indexes live sessions for the game loop. Game loop
// goroutine only.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session, 64)}
}

func (st *SessionStore) Add(s *Session)          { st.sessions[s.ID] = s }
func (st *SessionStore) Remove(id uint64)        { delete(st.sessions, id) }
func (st *SessionStore) Get(id uint64) *Session  { return st.sessions[id] }
func (st *SessionStore) Raw() map[uint64]*Session { return st.sessions }
func (st *SessionStore) Len() int                { return len(st.sessions) }

func (st *SessionStore) ForEach(fn func(*Session)) {
	for _, s := range st.sessions {
		fn(s)
	}
}
