package network

import "github.com/wfunc/unoserver/game"

// Message ids. Inbound intents are < 100, outbound events >= 100.
const (
	MsgHeartbeat uint16 = 1

	MsgGetRooms   uint16 = 10
	MsgCreateRoom uint16 = 11
	MsgJoinRoom   uint16 = 12
	MsgRejoinRoom uint16 = 13
	MsgLeaveRoom  uint16 = 14
	MsgAddBot     uint16 = 15

	MsgStartGame uint16 = 20
	MsgPlayCard  uint16 = 21
	MsgDrawCard  uint16 = 22
	MsgPassTurn  uint16 = 23
	MsgCallUno   uint16 = 24
	MsgCatchUno  uint16 = 25

	MsgRoomList     uint16 = 110
	MsgRoomJoined   uint16 = 111
	MsgError        uint16 = 112
	MsgLobbyState   uint16 = 120
	MsgGameStarted  uint16 = 121
	MsgGameState    uint16 = 122
	MsgCardsDrawn   uint16 = 123
	MsgCardPlayed   uint16 = 124
	MsgUnoCalled    uint16 = 125
	MsgUnoCaught    uint16 = 126
	MsgUnoForgotten uint16 = 127
	MsgPlayRejected uint16 = 128
	MsgGameOver     uint16 = 129
)

// Inbound payloads.

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type RejoinRoomRequest struct {
	RoomCode    string `json:"roomCode"`
	Name        string `json:"name"`
	OldPlayerID string `json:"oldPlayerId"`
}

type RoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type StartGameRequest struct {
	RoomCode      string `json:"roomCode"`
	StartingCards int    `json:"startingCards"`
}

type PlayCardRequest struct {
	RoomCode    string     `json:"roomCode"`
	CardIndices []int      `json:"cardIndices"`
	ChosenColor game.Color `json:"chosenColor,omitempty"`
}

type CatchUnoRequest struct {
	RoomCode string `json:"roomCode"`
	TargetID string `json:"targetId"`
}

// Outbound payloads.

type RoomSummary struct {
	Code        string `json:"code"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	HostName    string `json:"hostName"`
}

type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

type RoomJoined struct {
	Success        bool   `json:"success"`
	RoomCode       string `json:"roomCode,omitempty"`
	PlayerID       string `json:"playerId,omitempty"`
	IsHost         bool   `json:"isHost,omitempty"`
	GameInProgress bool   `json:"gameInProgress,omitempty"`
	Error          string `json:"error,omitempty"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type LobbyPlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	IsBot     bool   `json:"isBot"`
	Connected bool   `json:"connected"`
}

type LobbyState struct {
	RoomCode    string        `json:"roomCode"`
	Players     []LobbyPlayer `json:"players"`
	GameStarted bool          `json:"gameStarted"`
}

type PublicPlayer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CardCount     int    `json:"cardCount"`
	IsCurrentTurn bool   `json:"isCurrentTurn"`
	Connected     bool   `json:"connected"`
}

type CatchablePlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameState is personalized per recipient: Hand is the recipient's own hand,
// everyone else appears only as a card count.
type GameState struct {
	RoomCode          string            `json:"roomCode"`
	CurrentPlayerID   string            `json:"currentPlayerId"`
	CurrentPlayerName string            `json:"currentPlayerName"`
	Direction         int               `json:"direction"`
	CurrentColor      game.Color        `json:"currentColor"`
	TopCard           *game.Card        `json:"topCard"`
	DrawStack         int               `json:"drawStack"`
	DeckCount         int               `json:"deckCount"`
	Hand              []game.Card       `json:"hand"`
	HasDrawnThisTurn  bool              `json:"hasDrawnThisTurn"`
	IsDealing         bool              `json:"isDealing"`
	Players           []PublicPlayer    `json:"players"`
	CanCallUno        bool              `json:"canCallUno"`
	CatchablePlayers  []CatchablePlayer `json:"playersWithOneCard"`
}

type CardsDrawn struct {
	Cards []game.Card `json:"cards"`
}

type CardPlayed struct {
	PlayerID   string     `json:"playerId"`
	PlayerName string     `json:"playerName"`
	Card       game.Card  `json:"card"`
	Count      int        `json:"count"`
	Color      game.Color `json:"chosenColor"`
}

type UnoCalled struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type UnoCaught struct {
	CatcherName string `json:"catcherName"`
	TargetName  string `json:"targetName"`
}

type UnoForgotten struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type PlayRejected struct {
	Reason string `json:"reason"`
}

type WinnerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ScoreEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HandSize int    `json:"handSize"`
	Points   int    `json:"points"`
}

type GameOver struct {
	Winner WinnerInfo   `json:"winner"`
	Scores []ScoreEntry `json:"scores"`
}
