package main

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Every websocket frame is an envelope carrying the event name and its payload.
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Command is the closed set of messages a client may send.
type Command interface {
	commandType() string
}

type CreateGame struct {
	PlayerName string `json:"playerName"`
}

type JoinGame struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type StartGame struct {
	RoomCode string `json:"roomCode"`
}

type SelectSecretCharacter struct {
	RoomCode    string `json:"roomCode"`
	CharacterID int    `json:"characterId"`
}

type AskQuestion struct {
	RoomCode string `json:"roomCode"`
	Question string `json:"question"`
}

type AnswerQuestion struct {
	RoomCode  string `json:"roomCode"`
	MessageID string `json:"messageId"`
	Answer    string `json:"answer"`
}

type EliminateCharacter struct {
	RoomCode    string `json:"roomCode"`
	CharacterID int    `json:"characterId"`
}

type MakeGuess struct {
	RoomCode    string `json:"roomCode"`
	CharacterID int    `json:"characterId"`
}

type RestartGame struct {
	RoomCode string `json:"roomCode"`
}

type Ping struct{}

func (CreateGame) commandType() string            { return "createGame" }
func (JoinGame) commandType() string              { return "joinGame" }
func (StartGame) commandType() string             { return "startGame" }
func (SelectSecretCharacter) commandType() string { return "selectSecretCharacter" }
func (AskQuestion) commandType() string           { return "askQuestion" }
func (AnswerQuestion) commandType() string        { return "answerQuestion" }
func (EliminateCharacter) commandType() string    { return "eliminateCharacter" }
func (MakeGuess) commandType() string             { return "makeGuess" }
func (RestartGame) commandType() string           { return "restartGame" }
func (Ping) commandType() string                  { return "ping" }

var errUnknownCommand = errors.New("unknown message type")

// decodeCommand parses a raw client frame into one of the Command types.
func decodeCommand(data []byte) (Command, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch frame.Type {
	case "createGame":
		return decodePayload[CreateGame](frame)
	case "joinGame":
		return decodePayload[JoinGame](frame)
	case "startGame":
		return decodePayload[StartGame](frame)
	case "selectSecretCharacter":
		return decodePayload[SelectSecretCharacter](frame)
	case "askQuestion":
		return decodePayload[AskQuestion](frame)
	case "answerQuestion":
		return decodePayload[AnswerQuestion](frame)
	case "eliminateCharacter":
		return decodePayload[EliminateCharacter](frame)
	case "makeGuess":
		return decodePayload[MakeGuess](frame)
	case "restartGame":
		return decodePayload[RestartGame](frame)
	case "ping":
		return Ping{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, frame.Type)
	}
}

func decodePayload[T Command](frame inboundFrame) (Command, error) {
	var cmd T
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &cmd); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", frame.Type, err)
		}
	}
	return cmd, nil
}

// Event is the closed set of messages the server sends.
type Event interface {
	eventType() string
}

// PlayerView is the public part of a Player. Secret characters and
// elimination boards never leave the server through it.
type PlayerView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHost  bool   `json:"isHost"`
	IsReady bool   `json:"isReady"`
}

type Connected struct {
	PlayerID string `json:"playerId"`
}

type GameCreated struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type GameJoined struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type JoinError struct {
	Message string `json:"message"`
}

type PlayerJoined struct {
	Players []PlayerView `json:"players"`
}

type CharacterSelectionStarted struct {
	Characters []Character  `json:"characters"`
	Players    []PlayerView `json:"players"`
}

type SecretCharacterSelected struct {
	Character Character `json:"character"`
}

type CharacterSelectionUpdate struct {
	ReadyCount   int `json:"readyCount"`
	TotalPlayers int `json:"totalPlayers"`
}

// GameStarted is addressed to a single player and carries only that
// player's own secret.
type GameStarted struct {
	Characters      []Character  `json:"characters"`
	SecretCharacter Character    `json:"secretCharacter"`
	CurrentTurn     string       `json:"currentTurn"`
	Players         []PlayerView `json:"players"`
}

type QuestionAsked struct {
	Message
}

type AnswerGiven struct {
	Answer      Message `json:"answer"`
	CurrentTurn string  `json:"currentTurn"`
}

type CharacterEliminated struct {
	CharacterID          int   `json:"characterId"`
	EliminatedCharacters []int `json:"eliminatedCharacters"`
}

type TurnChanged struct {
	CurrentTurn      string `json:"currentTurn"`
	Action           string `json:"action"`
	ActionPlayer     string `json:"actionPlayer"`
	CharacterFlipped string `json:"characterFlipped,omitempty"`
}

type GameEnded struct {
	Winner           string    `json:"winner"`
	WinnerID         string    `json:"winnerId"`
	WinnerName       string    `json:"winnerName"`
	GuessedCharacter Character `json:"guessedCharacter"`
	CorrectCharacter Character `json:"correctCharacter"`
	IsCorrectGuess   bool      `json:"isCorrectGuess"`
}

type GameRestarted struct {
	RoomCode string       `json:"roomCode"`
	Players  []PlayerView `json:"players"`
}

type Pong struct{}

// PlayerDisconnected carries the winner fields only when the departure
// ended an unfinished match.
type PlayerDisconnected struct {
	DisconnectedPlayer     string       `json:"disconnectedPlayer"`
	DisconnectedPlayerName string       `json:"disconnectedPlayerName"`
	RemainingPlayers       []PlayerView `json:"remainingPlayers"`
	WinnerID               string       `json:"winnerId,omitempty"`
	WinnerName             string       `json:"winnerName,omitempty"`
	Disconnection          bool         `json:"disconnection,omitempty"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

func (Connected) eventType() string                 { return "connected" }
func (GameCreated) eventType() string               { return "gameCreated" }
func (GameJoined) eventType() string                { return "gameJoined" }
func (JoinError) eventType() string                 { return "joinError" }
func (PlayerJoined) eventType() string              { return "playerJoined" }
func (CharacterSelectionStarted) eventType() string { return "characterSelectionStarted" }
func (SecretCharacterSelected) eventType() string   { return "secretCharacterSelected" }
func (CharacterSelectionUpdate) eventType() string  { return "characterSelectionUpdate" }
func (GameStarted) eventType() string               { return "gameStarted" }
func (QuestionAsked) eventType() string             { return "questionAsked" }
func (AnswerGiven) eventType() string               { return "answerGiven" }
func (CharacterEliminated) eventType() string       { return "characterEliminated" }
func (TurnChanged) eventType() string               { return "turnChanged" }
func (GameEnded) eventType() string                 { return "gameEnded" }
func (GameRestarted) eventType() string             { return "gameRestarted" }
func (Pong) eventType() string                      { return "pong" }
func (PlayerDisconnected) eventType() string        { return "playerDisconnected" }
func (ErrorMessage) eventType() string              { return "error" }

func newFrame(ev Event) outboundFrame {
	if _, empty := ev.(Pong); empty {
		return outboundFrame{Type: ev.eventType()}
	}
	return outboundFrame{
		Type:    ev.eventType(),
		Payload: ev,
	}
}
