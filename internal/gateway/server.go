// Package gateway terminates client websocket connections: login,
// intent intake (movement, attacks) and the outbound delta stream
// from the change feed, proximity-filtered per session.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/molinet/emberfall/internal/combat"
	"github.com/molinet/emberfall/internal/config"
	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/db"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/progression"
	"github.com/molinet/emberfall/internal/store"
)

// sessionBuffer is the per-session delta channel capacity. A client
// that falls further behind starts losing deltas.
const sessionBuffer = 256

// Server accepts websocket clients and owns their sessions.
type Server struct {
	cfg    config.GameServer
	store  *store.Store
	engine *combat.Engine
	tables *data.Tables
	board  *progression.Leaderboard

	// accounts, players and persistence are nil when running without
	// a database; login then accepts any credentials and characters
	// live only in memory.
	accounts    *db.AccountRepository
	players     *db.PlayerRepository
	persistence *db.Persistence

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewServer creates the gateway server.
func NewServer(
	cfg config.GameServer,
	st *store.Store,
	engine *combat.Engine,
	tables *data.Tables,
	board *progression.Leaderboard,
	accounts *db.AccountRepository,
	players *db.PlayerRepository,
	persistence *db.Persistence,
) *Server {
	return &Server{
		cfg:         cfg,
		store:       st,
		engine:      engine,
		tables:      tables,
		board:       board,
		accounts:    accounts,
		players:     players,
		persistence: persistence,
		sessions:    make(map[string]*session),
	}
}

// Handler returns the http handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start runs the http server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.BindAddress, fmt.Sprint(s.cfg.Port))
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down gateway: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("gateway listener: %w", err)
	}
}

// handleWS upgrades the connection and runs the session to completion.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess, err := s.login(r.Context(), conn, r.RemoteAddr)
	if err != nil {
		slog.Warn("login failed", "remote", r.RemoteAddr, "error", err)
		conn.Close(websocket.StatusPolicyViolation, "login failed")
		return
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.run(r.Context())

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}

// Announce pushes a level-up notification to every connected session.
// Wired as the progression announce callback.
func (s *Server) Announce(entry model.LeaderboardEntry) {
	msg := serverMessage{Type: "announce", Entry: &entry}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.send(msg)
	}
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
