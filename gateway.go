// Who's That? session coordinator
//
// Two players share a room identified by a numeric code. Each hides one
// character from the catalog, then they take turns asking yes/no questions
// and flipping characters on their own private boards until one of them
// makes a final guess.
//
// Features:
// - One websocket per browser tab at {prefix}/ws, JSON envelopes both ways
// - Room codes are 4-6 digits; collisions are only rejected with --unique-room-codes
// - Every command is handled to completion on a single loop goroutine
// - Errors are reported to the offending connection only
// - A dropped connection hands an unfinished match to the remaining player
// - Idle rooms can be reaped after --session-timeout (disabled by default)
// - QR code per room for sharing the join link, backed by go-qrcode

package main

import (
	"context"
	"errors"
	"time"
)

var errGatewayClosed = errors.New("gateway is shut down")

type inbound struct {
	client *Client
	cmd    Command
	err    error
}

// Gateway routes client commands to their room's session and fans the
// resulting events back out. All state is owned by the goroutine in Run.
type Gateway struct {
	cfg      *Config
	registry *Registry

	clients map[string]*Client

	register chan *Client
	unreg    chan *Client
	inbound  chan inbound
	queries  chan func()
	done     chan struct{}
}

func newGateway(cfg *Config, registry *Registry) *Gateway {
	return &Gateway{
		cfg:      cfg,
		registry: registry,
		clients:  make(map[string]*Client),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		inbound:  make(chan inbound),
		queries:  make(chan func()),
		done:     make(chan struct{}),
	}
}

func (g *Gateway) Run(ctx context.Context) {
	defer close(g.done)

	var reap <-chan time.Time
	if g.cfg.sessionTimeout > 0 {
		ticker := time.NewTicker(g.cfg.sessionTimeout / 2)
		defer ticker.Stop()
		reap = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			g.closeAll()
			return

		case c := <-g.register:
			g.attach(c)

		case c := <-g.unreg:
			g.disconnect(c)

		case in := <-g.inbound:
			if in.err != nil {
				g.sendError(in.client, in.err)
				continue
			}
			g.dispatch(in.client, in.cmd)

		case fn := <-g.queries:
			fn()

		case now := <-reap:
			g.reap(now)
		}
	}
}

// submit hands a decoded frame to the loop. It returns false once the
// gateway has stopped.
func (g *Gateway) submit(c *Client, cmd Command, err error) bool {
	select {
	case g.inbound <- inbound{client: c, cmd: cmd, err: err}:
		return true
	case <-g.done:
		return false
	}
}

func (g *Gateway) enter(c *Client) bool {
	select {
	case g.register <- c:
		return true
	case <-g.done:
		return false
	}
}

func (g *Gateway) exit(c *Client) {
	select {
	case g.unreg <- c:
	case <-g.done:
	}
}

// do runs fn on the loop goroutine and waits for it to finish.
func (g *Gateway) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	select {
	case g.queries <- func() {
		fn()
		close(finished)
	}:
	case <-ctx.Done():
		return ctx.Err()
	case <-g.done:
		return errGatewayClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoomCount answers the status query.
func (g *Gateway) RoomCount(ctx context.Context) (int, error) {
	var n int
	err := g.do(ctx, func() {
		n = g.registry.Count()
	})
	return n, err
}

func (g *Gateway) RoomExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := g.do(ctx, func() {
		_, lookupErr := g.registry.Lookup(code)
		exists = lookupErr == nil
	})
	return exists, err
}

func (g *Gateway) attach(c *Client) {
	g.clients[c.id] = c
	g.send(c.id, Connected{PlayerID: c.id})
}

// disconnect forgets the connection and vacates every seat it held.
func (g *Gateway) disconnect(c *Client) {
	if _, ok := g.clients[c.id]; ok {
		delete(g.clients, c.id)
		close(c.send)
	}
	g.vacate(c)
}

func (g *Gateway) vacate(c *Client) {
	for _, s := range g.registry.RoomsWith(c.id) {
		deliveries, empty := s.Depart(c.id)
		if empty {
			g.registry.Evict(s.Code())
			logf(g.cfg, "GAMES: Room %s closed, last player left", s.Code())
			continue
		}

		logf(g.cfg, "GAMES: Player %s left %s", c.id, s.Code())
		g.deliver(s, deliveries)
	}
	c.room = ""
}

func (g *Gateway) dispatch(c *Client, cmd Command) {
	switch cmd := cmd.(type) {
	case CreateGame:
		g.createGame(c, cmd)
	case JoinGame:
		g.joinGame(c, cmd)
	case StartGame:
		g.apply(c, cmd.RoomCode, func(s *Session) ([]delivery, error) {
			return s.Start(c.id)
		})
	case SelectSecretCharacter:
		g.apply(c, cmd.RoomCode, func(s *Session) ([]delivery, error) {
			return s.SelectSecret(c.id, cmd.CharacterID)
		})
	case AskQuestion:
		g.apply(c, cmd.RoomCode, func(s *Session) ([]delivery, error) {
			return s.Ask(c.id, cmd.Question)
		})
	case AnswerQuestion:
		g.apply(c, cmd.RoomCode, func(s *Session) ([]delivery, error) {
			return s.Answer(c.id, cmd.MessageID, cmd.Answer)
		})
	case EliminateCharacter:
		g.apply(c, cmd.RoomCode, func(s *Session) ([]delivery, error) {
			return s.Eliminate(c.id, cmd.CharacterID)
		})
	case MakeGuess:
		g.apply(c, cmd.RoomCode, func(s *Session) ([]delivery, error) {
			return s.Guess(c.id, cmd.CharacterID)
		})
	case RestartGame:
		g.apply(c, cmd.RoomCode, func(s *Session) ([]delivery, error) {
			return s.Restart(c.id)
		})
	case Ping:
		g.send(c.id, Pong{})
	default:
		g.sendError(c, errUnknownCommand)
	}
}

func (g *Gateway) createGame(c *Client, cmd CreateGame) {
	if c.room != "" {
		g.vacate(c)
	}

	s := g.registry.Create(c.id, cmd.PlayerName)
	c.room = s.Code()

	logf(g.cfg, "GAMES: Created room %s for %q", s.Code(), cmd.PlayerName)

	g.send(c.id, GameCreated{
		RoomCode:   s.Code(),
		PlayerName: cmd.PlayerName,
	})
	g.deliver(s, []delivery{toRoom(PlayerJoined{Players: s.roster()})})
}

func (g *Gateway) joinGame(c *Client, cmd JoinGame) {
	s, err := g.registry.Lookup(cmd.RoomCode)
	if err != nil {
		g.send(c.id, JoinError{Message: err.Error()})
		return
	}
	if s.hasPlayer(c.id) {
		g.send(c.id, JoinError{Message: "Already in this room"})
		return
	}
	if s.Len() >= maxPlayers {
		logf(g.cfg, "GAMES: %q could not join %s, room is full", cmd.PlayerName, cmd.RoomCode)
		g.send(c.id, JoinError{Message: "Room is full"})
		return
	}

	if c.room != "" {
		g.vacate(c)
	}

	if err := s.addPlayer(c.id, cmd.PlayerName, false); err != nil {
		g.send(c.id, JoinError{Message: err.Error()})
		return
	}
	c.room = s.Code()

	logf(g.cfg, "GAMES: Player %q joined %s", cmd.PlayerName, s.Code())

	g.send(c.id, GameJoined{
		RoomCode:   s.Code(),
		PlayerName: cmd.PlayerName,
	})
	g.deliver(s, []delivery{toRoom(PlayerJoined{Players: s.roster()})})
}

// apply runs one session transition for code and delivers its events, or
// reports the failure to c alone.
func (g *Gateway) apply(c *Client, code string, transition func(*Session) ([]delivery, error)) {
	s, err := g.registry.Lookup(code)
	if err != nil {
		g.sendError(c, err)
		return
	}

	deliveries, err := transition(s)
	if err != nil {
		logf(g.cfg, "GAMES: Rejected command from %s in %s: %v", c.id, code, err)
		g.sendError(c, err)
		return
	}

	g.deliver(s, deliveries)
}

func (g *Gateway) deliver(s *Session, deliveries []delivery) {
	for _, d := range deliveries {
		if d.to != "" {
			g.send(d.to, d.event)
			continue
		}
		for _, p := range s.players {
			g.send(p.ID, d.event)
		}
	}
}

// send queues ev for one connection. A client whose queue is full is cut
// off; its read pump will report the disconnect.
func (g *Gateway) send(id string, ev Event) {
	c, ok := g.clients[id]
	if !ok {
		return
	}

	select {
	case c.send <- ev:
	default:
		logf(g.cfg, "GAMES: Dropping slow client %s", id)
		delete(g.clients, id)
		close(c.send)
	}
}

func (g *Gateway) sendError(c *Client, err error) {
	g.send(c.id, ErrorMessage{Message: err.Error()})
}

// reap closes rooms that saw no activity for the session timeout.
func (g *Gateway) reap(now time.Time) {
	for _, s := range g.registry.Idle(now.Add(-g.cfg.sessionTimeout)) {
		for _, p := range s.players {
			g.send(p.ID, ErrorMessage{Message: "Room closed due to inactivity"})
			if c, ok := g.clients[p.ID]; ok && c.room == s.Code() {
				c.room = ""
			}
		}
		g.registry.Evict(s.Code())
		logf(g.cfg, "GAMES: Reaped idle room %s", s.Code())
	}
}

func (g *Gateway) closeAll() {
	for id, c := range g.clients {
		delete(g.clients, id)
		close(c.send)
	}
}
