package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

const (
	// loginTimeout bounds how long a fresh connection may stall before
	// sending its login message.
	loginTimeout = 10 * time.Second
	// writeTimeout bounds one outbound frame.
	writeTimeout = 5 * time.Second
	// moveRateSlack tolerates tick jitter in the movement speed check.
	moveRateSlack = 1.2
)

// session is one authenticated client connection.
type session struct {
	id       string
	login    string
	playerID uint32

	srv  *Server
	conn *websocket.Conn
	sub  *store.Subscription

	lastMoveAt time.Time
	lastPos    model.Position
}

// login performs the handshake: first message must authenticate, then
// the character is loaded or created and placed into the world.
func (s *Server) login(ctx context.Context, conn *websocket.Conn, remoteAddr string) (*session, error) {
	readCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	_, raw, err := conn.Read(readCtx)
	if err != nil {
		return nil, fmt.Errorf("reading login message: %w", err)
	}
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("parsing login message: %w", err)
	}
	if msg.Type != "login" || msg.Login == "" {
		return nil, fmt.Errorf("expected login message, got %q", msg.Type)
	}

	if s.accounts != nil {
		if _, err := s.accounts.Authenticate(ctx, msg.Login, msg.Password, remoteAddr); err != nil {
			return nil, fmt.Errorf("authenticating %q: %w", msg.Login, err)
		}
	}

	player, err := s.resolvePlayer(ctx, msg)
	if err != nil {
		return nil, err
	}
	if player.Banned {
		return nil, fmt.Errorf("character %q is banned", player.Name)
	}

	player.Online = true
	player.State = model.StateIdle
	if err := s.store.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(player)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("placing player %d: %w", player.ID, err)
	}
	if s.persistence != nil {
		s.persistence.BindAccount(player.ID, msg.Login)
	}

	sess := &session{
		id:       uuid.NewString(),
		login:    msg.Login,
		playerID: player.ID,
		srv:      s,
		conn:     conn,
		sub:      s.store.Feed().SubscribeNear(player.Pos, s.cfg.Rules.ViewRadius, sessionBuffer),
		lastPos:  player.Pos,
	}

	sess.send(serverMessage{Type: "welcome", SessionID: sess.id, PlayerID: player.ID})
	sess.sendWorldSnapshot(ctx)
	slog.Info("session started",
		"sessionID", sess.id, "login", msg.Login, "playerID", player.ID)
	return sess, nil
}

// resolvePlayer loads the named character or creates a fresh one.
func (s *Server) resolvePlayer(ctx context.Context, msg clientMessage) (model.Player, error) {
	name := msg.Name
	if name == "" {
		name = msg.Login
	}

	if s.players != nil {
		stored, err := s.players.LoadByName(ctx, name)
		if err != nil {
			return model.Player{}, fmt.Errorf("loading character %q: %w", name, err)
		}
		if stored != nil {
			return *stored, nil
		}
	}

	job := msg.Job
	if _, ok := s.tables.Classes[job]; !ok {
		job = ""
	}
	baseline := s.tables.Class(job)
	return model.Player{
		ID:    s.store.NextID(),
		Name:  name,
		Job:   baseline.Job,
		Level: 1,
		HP:    baseline.MaxHP(1),
		MaxHP: baseline.MaxHP(1),
		MP:    baseline.MaxMP(1),
		MaxMP: baseline.MaxMP(1),
	}, nil
}

// sendWorldSnapshot streams the current nearby world as insert deltas
// so the client starts from a complete picture.
func (sess *session) sendWorldSnapshot(ctx context.Context) {
	var deltas []store.Delta
	radius := sess.srv.cfg.Rules.ViewRadius
	sess.srv.store.View(ctx, func(tx *store.Tx) {
		center := sess.lastPos
		for _, p := range tx.Players() {
			if p.Pos.DistanceTo(center) <= radius {
				pp := p
				deltas = append(deltas, store.Delta{Kind: store.DeltaInsert, EntityKind: store.EntityPlayer, Player: &pp})
			}
		}
		for _, sp := range tx.Spawns() {
			if sp.Pos.DistanceTo(center) <= radius {
				ss := sp
				deltas = append(deltas, store.Delta{Kind: store.DeltaInsert, EntityKind: store.EntitySpawn, Spawn: &ss})
			}
		}
	})
	for i := range deltas {
		sess.send(serverMessage{Type: "delta", Delta: &deltas[i]})
	}
}

// run pumps the session until the client disconnects or the server
// shuts down.
func (sess *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sess.writeLoop(ctx)
	sess.readLoop(ctx)

	sess.teardown()
}

// readLoop decodes and dispatches client intents.
func (sess *session) readLoop(ctx context.Context) {
	for {
		_, raw, err := sess.conn.Read(ctx)
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Warn("malformed client message", "sessionID", sess.id, "error", err)
			continue
		}

		switch msg.Type {
		case "move":
			sess.handleMove(ctx, msg)
		case "attack":
			sess.handleAttack(ctx, msg)
		case "leaderboard":
			if sess.srv.board != nil {
				sess.send(serverMessage{Type: "leaderboard", Entries: sess.srv.board.Snapshot()})
			}
		default:
			slog.Warn("unknown message type", "sessionID", sess.id, "type", msg.Type)
		}
	}
}

// writeLoop forwards feed deltas until the subscription closes.
func (sess *session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-sess.sub.Deltas():
			if !ok {
				return
			}
			sess.send(serverMessage{Type: "delta", Delta: &d})
		}
	}
}

// handleMove applies a movement intent after the speed check. A
// rejected intent re-publishes the authoritative state so the client
// snaps back.
func (sess *session) handleMove(ctx context.Context, msg clientMessage) {
	now := time.Now()
	target := model.Position{X: msg.X, Y: msg.Y}

	err := sess.srv.store.Update(ctx, func(tx *store.Tx) error {
		p, ok := tx.Player(sess.playerID)
		if !ok || p.IsDead() {
			return nil
		}

		if !sess.moveAllowed(target, now) {
			slog.Warn("movement intent rejected",
				"sessionID", sess.id, "playerID", sess.playerID,
				"from", sess.lastPos, "to", target)
			// Re-publish so the client reconciles back.
			tx.PutPlayer(p)
			return nil
		}

		p.Pos = target
		if f := model.Facing(msg.Facing); f == model.FacingLeft || f == model.FacingRight {
			p.Face = f
		}
		state := model.StateIdle
		if msg.Moving {
			state = model.StateWalk
		}
		if model.CanTransition(p.State, state) {
			p.State = state
		}
		tx.PutPlayer(p)

		sess.lastMoveAt = now
		sess.lastPos = target
		sess.sub.SetCenter(target)
		return nil
	})
	if err != nil {
		slog.Error("applying movement", "sessionID", sess.id, "error", err)
	}
}

// moveAllowed enforces the maximum movement speed between intents.
func (sess *session) moveAllowed(target model.Position, now time.Time) bool {
	if sess.lastMoveAt.IsZero() {
		return true
	}
	dt := now.Sub(sess.lastMoveAt).Seconds()
	if dt <= 0 {
		return false
	}
	allowed := sess.srv.cfg.Rules.MaxMoveSpeed * dt * moveRateSlack
	return sess.lastPos.DistanceTo(target) <= allowed
}

// handleAttack forwards the attack intent to combat resolution.
func (sess *session) handleAttack(ctx context.Context, msg clientMessage) {
	err := sess.srv.engine.PlayerAttack(ctx, sess.playerID, msg.TargetIDs, model.AttackType(msg.AttackType))
	if err != nil {
		slog.Error("resolving attack", "sessionID", sess.id, "error", err)
	}
}

// send writes one message, dropping the connection on failure.
func (sess *session) send(msg serverMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encoding server message", "sessionID", sess.id, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := sess.conn.Write(ctx, websocket.MessageText, raw); err != nil {
		sess.conn.Close(websocket.StatusAbnormalClosure, "write failed")
	}
}

// teardown unsubscribes, marks the player offline and flushes their
// state.
func (sess *session) teardown() {
	sess.srv.store.Feed().Unsubscribe(sess.sub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var final model.Player
	var found bool
	err := sess.srv.store.Update(ctx, func(tx *store.Tx) error {
		p, ok := tx.Player(sess.playerID)
		if !ok {
			return nil
		}
		p.Online = false
		p.InCombat = false
		tx.PutPlayer(p)
		final, found = p, true
		return nil
	})
	if err != nil {
		slog.Error("marking player offline", "sessionID", sess.id, "error", err)
	}

	if sess.srv.persistence != nil {
		if found {
			sess.srv.persistence.FlushPlayer(ctx, final)
		}
		sess.srv.persistence.UnbindAccount(sess.playerID)
	}
	slog.Info("session closed",
		"sessionID", sess.id, "playerID", sess.playerID, "dropped", sess.sub.Dropped())
}
