package main

import (
	"math/rand/v2"
	"slices"
	"time"
)

type Phase string

const (
	PhaseLobby              Phase = "lobby"
	PhaseCharacterSelection Phase = "character_selection"
	PhasePlaying            Phase = "playing"
	PhaseFinished           Phase = "finished"
)

const maxPlayers = 2

type MessageType string

const (
	MessageQuestion MessageType = "question"
	MessageAnswer   MessageType = "answer"
	MessageSystem   MessageType = "system"
)

// Message is one entry of a room's question/answer log.
type Message struct {
	ID         string      `json:"id"`
	PlayerID   string      `json:"playerId"`
	PlayerName string      `json:"playerName"`
	Type       MessageType `json:"type"`
	Content    string      `json:"content"`
	QuestionID string      `json:"questionId,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Player holds the server-side state of one seat in a room. The player ID is
// the identity of the connection that owns the seat.
type Player struct {
	ID              string
	Name            string
	IsHost          bool
	SecretCharacter *Character
	Eliminated      []int
	IsReady         bool
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:      p.ID,
		Name:    p.Name,
		IsHost:  p.IsHost,
		IsReady: p.IsReady,
	}
}

// toggleEliminated adds id to the board, or removes it when already present.
func (p *Player) toggleEliminated(id int) {
	if i := slices.Index(p.Eliminated, id); i >= 0 {
		p.Eliminated = slices.Delete(p.Eliminated, i, i+1)
		return
	}
	p.Eliminated = append(p.Eliminated, id)
}

func (p *Player) resetMatch() {
	p.SecretCharacter = nil
	p.Eliminated = nil
	p.IsReady = false
}

// delivery is an event produced by a session transition. An empty recipient
// addresses every player in the room.
type delivery struct {
	to    string
	event Event
}

func toRoom(ev Event) delivery {
	return delivery{event: ev}
}

func toPlayer(id string, ev Event) delivery {
	return delivery{to: id, event: ev}
}

// Session is the state machine of a single two-player match. It is not safe
// for concurrent use; the gateway loop is its only caller.
type Session struct {
	code    string
	catalog *Catalog
	rng     *rand.Rand
	now     func() time.Time
	newID   func() string

	players     []*Player
	phase       Phase
	currentTurn string
	winner      string
	log         []Message

	createdAt  time.Time
	lastActive time.Time
}

func newSession(code string, catalog *Catalog, rng *rand.Rand, now func() time.Time, newID func() string) *Session {
	t := now()
	return &Session{
		code:       code,
		catalog:    catalog,
		rng:        rng,
		now:        now,
		newID:      newID,
		phase:      PhaseLobby,
		createdAt:  t,
		lastActive: t,
	}
}

func (s *Session) Code() string {
	return s.code
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) CurrentTurn() string {
	return s.currentTurn
}

func (s *Session) Winner() string {
	return s.winner
}

func (s *Session) Len() int {
	return len(s.players)
}

// Log returns a copy of the question/answer history in append order.
func (s *Session) Log() []Message {
	return slices.Clone(s.log)
}

func (s *Session) player(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) opponent(id string) *Player {
	for _, p := range s.players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

func (s *Session) hasPlayer(id string) bool {
	return s.player(id) != nil
}

func (s *Session) roster() []PlayerView {
	views := make([]PlayerView, 0, len(s.players))
	for _, p := range s.players {
		views = append(views, p.view())
	}
	return views
}

func (s *Session) touch() {
	s.lastActive = s.now()
}

// addPlayer seats a new player. Seats are kept in join order.
func (s *Session) addPlayer(id, name string, host bool) error {
	if len(s.players) >= maxPlayers {
		return newGameError(ErrFull, "Room is full")
	}
	if s.hasPlayer(id) {
		return newGameError(ErrAlreadySeated, "Already in this room")
	}

	s.players = append(s.players, &Player{
		ID:     id,
		Name:   name,
		IsHost: host,
	})
	s.touch()

	return nil
}

// flipTurn returns the seat that is not current. Every answer and every
// elimination passes the turn through here, whoever sent it.
func flipTurn(players []*Player, current string) string {
	for _, p := range players {
		if p.ID != current {
			return p.ID
		}
	}
	return ""
}

func (s *Session) requirePlayer(id string) (*Player, error) {
	p := s.player(id)
	if p == nil {
		return nil, newGameError(ErrNotAPlayer, "Player not found")
	}
	return p, nil
}

func (s *Session) requirePhase(phase Phase, format string) error {
	if s.phase != phase {
		return newGameError(ErrWrongPhase, format, s.phase)
	}
	return nil
}

func (s *Session) requireCharacter(id int) (Character, error) {
	ch, ok := s.catalog.Lookup(id)
	if !ok {
		return Character{}, newGameError(ErrNotFound, "Character not found")
	}
	return ch, nil
}

// Start moves a full lobby into character selection.
func (s *Session) Start(sender string) ([]delivery, error) {
	if _, err := s.requirePlayer(sender); err != nil {
		return nil, err
	}
	if err := s.requirePhase(PhaseLobby, "Cannot start a game that is %s"); err != nil {
		return nil, err
	}
	if len(s.players) != maxPlayers {
		return nil, newGameError(ErrWrongPhase, "Need exactly 2 players to start")
	}

	s.phase = PhaseCharacterSelection
	s.touch()

	return []delivery{
		toRoom(CharacterSelectionStarted{
			Characters: s.catalog.All(),
			Players:    s.roster(),
		}),
	}, nil
}

// SelectSecret records the sender's hidden character. Once both seats have
// chosen, the match begins with a coin flip for the first turn.
func (s *Session) SelectSecret(sender string, characterID int) ([]delivery, error) {
	if err := s.requirePhase(PhaseCharacterSelection, "Invalid game state for character selection: %s"); err != nil {
		return nil, err
	}
	p, err := s.requirePlayer(sender)
	if err != nil {
		return nil, err
	}
	ch, err := s.requireCharacter(characterID)
	if err != nil {
		return nil, err
	}
	if p.SecretCharacter != nil {
		return nil, newGameError(ErrWrongPhase, "Secret character already selected")
	}

	p.SecretCharacter = &ch
	p.IsReady = true
	s.touch()

	out := []delivery{
		toPlayer(p.ID, SecretCharacterSelected{Character: ch}),
	}

	ready := 0
	for _, pl := range s.players {
		if pl.IsReady && pl.SecretCharacter != nil {
			ready++
		}
	}

	if ready < maxPlayers || len(s.players) < maxPlayers {
		return append(out, toRoom(CharacterSelectionUpdate{
			ReadyCount:   ready,
			TotalPlayers: len(s.players),
		})), nil
	}

	s.phase = PhasePlaying
	s.currentTurn = s.players[s.rng.IntN(len(s.players))].ID

	characters := s.catalog.All()
	roster := s.roster()
	for _, pl := range s.players {
		out = append(out, toPlayer(pl.ID, GameStarted{
			Characters:      characters,
			SecretCharacter: *pl.SecretCharacter,
			CurrentTurn:     s.currentTurn,
			Players:         roster,
		}))
	}

	return out, nil
}

func (s *Session) Ask(sender, question string) ([]delivery, error) {
	if err := s.requirePhase(PhasePlaying, "Cannot ask a question while the game is %s"); err != nil {
		return nil, err
	}
	p, err := s.requirePlayer(sender)
	if err != nil {
		return nil, err
	}
	if s.currentTurn != sender {
		return nil, newGameError(ErrWrongTurn, "Not your turn")
	}

	msg := Message{
		ID:         s.newID(),
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Type:       MessageQuestion,
		Content:    question,
		Timestamp:  s.now(),
	}
	s.log = append(s.log, msg)
	s.touch()

	return []delivery{toRoom(QuestionAsked{Message: msg})}, nil
}

// Answer replies to a logged question. Anyone seated may answer, and the
// turn always flips afterwards.
func (s *Session) Answer(sender, questionID, answer string) ([]delivery, error) {
	if err := s.requirePhase(PhasePlaying, "Cannot answer while the game is %s"); err != nil {
		return nil, err
	}
	p, err := s.requirePlayer(sender)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(s.log, func(m Message) bool {
		return m.ID == questionID && m.Type == MessageQuestion
	})
	if idx < 0 {
		return nil, newGameError(ErrNotFound, "Question not found")
	}

	msg := Message{
		ID:         s.newID(),
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Type:       MessageAnswer,
		Content:    answer,
		QuestionID: questionID,
		Timestamp:  s.now(),
	}
	s.log = append(s.log, msg)
	s.currentTurn = flipTurn(s.players, s.currentTurn)
	s.touch()

	return []delivery{
		toRoom(AnswerGiven{
			Answer:      msg,
			CurrentTurn: s.currentTurn,
		}),
	}, nil
}

// Eliminate toggles a character on the sender's own board. There is no turn
// guard, yet the turn still flips.
func (s *Session) Eliminate(sender string, characterID int) ([]delivery, error) {
	if err := s.requirePhase(PhasePlaying, "Cannot flip characters while the game is %s"); err != nil {
		return nil, err
	}
	p, err := s.requirePlayer(sender)
	if err != nil {
		return nil, err
	}

	p.toggleEliminated(characterID)
	s.currentTurn = flipTurn(s.players, s.currentTurn)
	s.touch()

	// Ids outside the catalog still toggle; they just have no name to show.
	ch, _ := s.catalog.Lookup(characterID)

	return []delivery{
		toPlayer(p.ID, CharacterEliminated{
			CharacterID:          characterID,
			EliminatedCharacters: slices.Clone(p.Eliminated),
		}),
		toRoom(TurnChanged{
			CurrentTurn:      s.currentTurn,
			Action:           "flip",
			ActionPlayer:     p.Name,
			CharacterFlipped: ch.Name,
		}),
	}, nil
}

// Guess ends the match. A correct guess wins for the guesser, anything else
// hands the win to the opponent.
func (s *Session) Guess(sender string, characterID int) ([]delivery, error) {
	if err := s.requirePhase(PhasePlaying, "Cannot guess while the game is %s"); err != nil {
		return nil, err
	}
	p, err := s.requirePlayer(sender)
	if err != nil {
		return nil, err
	}
	if s.currentTurn != sender {
		return nil, newGameError(ErrWrongTurn, "Not your turn")
	}

	opp := s.opponent(sender)
	if opp == nil || opp.SecretCharacter == nil {
		return nil, newGameError(ErrNotFound, "Opponent not found")
	}

	// An id outside the catalog is simply a wrong guess.
	guessed, ok := s.catalog.Lookup(characterID)
	if !ok {
		guessed = Character{ID: characterID}
	}
	correct := characterID == opp.SecretCharacter.ID

	winner := opp
	if correct {
		winner = p
	}

	s.phase = PhaseFinished
	s.winner = winner.ID
	s.touch()

	return []delivery{
		toRoom(GameEnded{
			Winner:           winner.ID,
			WinnerID:         winner.ID,
			WinnerName:       winner.Name,
			GuessedCharacter: guessed,
			CorrectCharacter: *opp.SecretCharacter,
			IsCorrectGuess:   correct,
		}),
	}, nil
}

// Restart returns a finished room to the lobby. Seats, host flags and the
// room code survive; everything tied to the previous match is cleared.
func (s *Session) Restart(sender string) ([]delivery, error) {
	if _, err := s.requirePlayer(sender); err != nil {
		return nil, err
	}
	if err := s.requirePhase(PhaseFinished, "Cannot restart a game that is %s"); err != nil {
		return nil, err
	}

	for _, p := range s.players {
		p.resetMatch()
	}
	s.phase = PhaseLobby
	s.currentTurn = ""
	s.winner = ""
	s.log = nil
	s.touch()

	return []delivery{
		toRoom(GameRestarted{
			RoomCode: s.code,
			Players:  s.roster(),
		}),
	}, nil
}

// Depart removes a seat after its connection went away. It reports whether
// the room is now empty; an empty room produces no events.
func (s *Session) Depart(id string) ([]delivery, bool) {
	idx := slices.IndexFunc(s.players, func(p *Player) bool { return p.ID == id })
	if idx < 0 {
		return nil, len(s.players) == 0
	}

	gone := s.players[idx]
	s.players = slices.Delete(s.players, idx, idx+1)
	s.touch()

	if len(s.players) == 0 {
		return nil, true
	}

	ev := PlayerDisconnected{
		DisconnectedPlayer:     gone.ID,
		DisconnectedPlayerName: gone.Name,
		RemainingPlayers:       s.roster(),
	}

	if len(s.players) == 1 && (s.phase == PhaseCharacterSelection || s.phase == PhasePlaying) {
		survivor := s.players[0]
		s.phase = PhaseFinished
		s.winner = survivor.ID
		ev.WinnerID = survivor.ID
		ev.WinnerName = survivor.Name
		ev.Disconnection = true
	}

	return []delivery{toRoom(ev)}, false
}
