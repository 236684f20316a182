package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/wfunc/unoserver/game"
	"github.com/wfunc/unoserver/network"
)

var (
	paintRed    = color.New(color.FgRed, color.Bold)
	paintYellow = color.New(color.FgYellow, color.Bold)
	paintGreen  = color.New(color.FgGreen, color.Bold)
	paintBlue   = color.New(color.FgBlue, color.Bold)
	paintWild   = color.New(color.FgMagenta, color.Bold)
	paintDim    = color.New(color.Faint)
)

func paint(c game.Color) *color.Color {
	switch c {
	case game.ColorRed:
		return paintRed
	case game.ColorYellow:
		return paintYellow
	case game.ColorGreen:
		return paintGreen
	case game.ColorBlue:
		return paintBlue
	}
	return paintWild
}

func renderCard(c game.Card) string {
	return paint(c.Color).Sprintf("[%s]", c.Display())
}

func renderHand(hand []game.Card) string {
	var b strings.Builder
	for i, c := range hand {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(paintDim.Sprintf("%d:", i))
		b.WriteString(renderCard(c))
	}
	return b.String()
}

func send(c *websocket.Conn, msgID uint16, payload interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

type client struct {
	conn     *websocket.Conn
	roomCode string
	playerID string
}

func (cl *client) handleMessage(msgID uint16, data []byte) {
	switch msgID {
	case network.MsgRoomList:
		var list network.RoomList
		if json.Unmarshal(data, &list) != nil {
			return
		}
		if len(list.Rooms) == 0 {
			fmt.Println("No open rooms.")
			return
		}
		for _, r := range list.Rooms {
			fmt.Printf("  %s  %d/%d players  host %s\n", r.Code, r.PlayerCount, r.MaxPlayers, r.HostName)
		}
	case network.MsgRoomJoined:
		var joined network.RoomJoined
		if json.Unmarshal(data, &joined) != nil {
			return
		}
		if !joined.Success {
			color.Red("Join failed: %s", joined.Error)
			return
		}
		cl.roomCode = joined.RoomCode
		cl.playerID = joined.PlayerID
		fmt.Printf("Joined room %s (host: %v)\n", joined.RoomCode, joined.IsHost)
	case network.MsgError:
		var msg network.ErrorMessage
		if json.Unmarshal(data, &msg) != nil {
			return
		}
		color.Red("Error: %s", msg.Message)
	case network.MsgLobbyState:
		var lobby network.LobbyState
		if json.Unmarshal(data, &lobby) != nil {
			return
		}
		fmt.Printf("Lobby %s:\n", lobby.RoomCode)
		for _, p := range lobby.Players {
			tags := ""
			if p.IsHost {
				tags += " (host)"
			}
			if p.IsBot {
				tags += " (bot)"
			}
			if !p.Connected {
				tags += " (away)"
			}
			fmt.Printf("  %s%s\n", p.Name, tags)
		}
	case network.MsgGameStarted:
		color.Cyan("Game started!")
	case network.MsgGameState:
		var state network.GameState
		if json.Unmarshal(data, &state) != nil {
			return
		}
		cl.printState(state)
	case network.MsgCardsDrawn:
		var drawn network.CardsDrawn
		if json.Unmarshal(data, &drawn) != nil {
			return
		}
		parts := make([]string, len(drawn.Cards))
		for i, c := range drawn.Cards {
			parts[i] = renderCard(c)
		}
		fmt.Printf("You drew %s\n", strings.Join(parts, " "))
	case network.MsgCardPlayed:
		var played network.CardPlayed
		if json.Unmarshal(data, &played) != nil {
			return
		}
		suffix := ""
		if played.Count > 1 {
			suffix = fmt.Sprintf(" x%d", played.Count)
		}
		fmt.Printf("%s played %s%s\n", played.PlayerName, renderCard(played.Card), suffix)
	case network.MsgUnoCalled:
		var called network.UnoCalled
		if json.Unmarshal(data, &called) != nil {
			return
		}
		color.Yellow("%s called UNO!", called.PlayerName)
	case network.MsgUnoCaught:
		var caught network.UnoCaught
		if json.Unmarshal(data, &caught) != nil {
			return
		}
		color.Yellow("%s caught %s forgetting UNO, +2 cards", caught.CatcherName, caught.TargetName)
	case network.MsgUnoForgotten:
		var forgot network.UnoForgotten
		if json.Unmarshal(data, &forgot) != nil {
			return
		}
		color.Yellow("%s forgot to call UNO, +2 penalty", forgot.PlayerName)
	case network.MsgPlayRejected:
		var rejected network.PlayRejected
		if json.Unmarshal(data, &rejected) != nil {
			return
		}
		color.Red("Play rejected: %s", rejected.Reason)
	case network.MsgGameOver:
		var over network.GameOver
		if json.Unmarshal(data, &over) != nil {
			return
		}
		color.Cyan("Game over! Winner: %s", over.Winner.Name)
		for i, s := range over.Scores {
			fmt.Printf("  %d. %s  %d cards, %d points\n", i+1, s.Name, s.HandSize, s.Points)
		}
	}
}

func (cl *client) printState(state network.GameState) {
	fmt.Println(strings.Repeat("-", 48))
	if state.IsDealing {
		paintDim.Println("dealing...")
	}
	if state.TopCard != nil {
		fmt.Printf("Top: %s  color %s", renderCard(*state.TopCard), paint(state.CurrentColor).Sprint(state.CurrentColor))
	}
	if state.DrawStack > 0 {
		fmt.Printf("  stack +%d", state.DrawStack)
	}
	fmt.Printf("  deck %d\n", state.DeckCount)

	for _, p := range state.Players {
		marker := "  "
		if p.IsCurrentTurn {
			marker = "> "
		}
		away := ""
		if !p.Connected {
			away = " (away)"
		}
		fmt.Printf("%s%s: %d cards%s\n", marker, p.Name, p.CardCount, away)
	}
	fmt.Printf("Hand: %s\n", renderHand(state.Hand))
	if state.CanCallUno {
		color.Yellow("You can call UNO ('uno')")
	}
	for _, p := range state.CatchablePlayers {
		color.Yellow("%s is on one card without calling, 'catch %s'", p.Name, p.ID)
	}
	if state.CurrentPlayerID == cl.playerID {
		color.Cyan("Your turn.")
	}
}

func (cl *client) handleCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "rooms":
		send(cl.conn, network.MsgGetRooms, nil)
	case "create":
		if len(fields) < 2 {
			fmt.Println("usage: create <name>")
			return
		}
		send(cl.conn, network.MsgCreateRoom, network.CreateRoomRequest{Name: fields[1]})
	case "join":
		if len(fields) < 3 {
			fmt.Println("usage: join <code> <name>")
			return
		}
		send(cl.conn, network.MsgJoinRoom, network.JoinRoomRequest{RoomCode: fields[1], Name: fields[2]})
	case "leave":
		send(cl.conn, network.MsgLeaveRoom, network.RoomRequest{RoomCode: cl.roomCode})
	case "bot":
		send(cl.conn, network.MsgAddBot, network.RoomRequest{RoomCode: cl.roomCode})
	case "start":
		send(cl.conn, network.MsgStartGame, network.StartGameRequest{RoomCode: cl.roomCode})
	case "play":
		if len(fields) < 2 {
			fmt.Println("usage: play <index> [index...] [color]")
			return
		}
		var indices []int
		var chosen game.Color
		for _, f := range fields[1:] {
			if n, err := strconv.Atoi(f); err == nil {
				indices = append(indices, n)
			} else {
				chosen = game.Color(f)
			}
		}
		send(cl.conn, network.MsgPlayCard, network.PlayCardRequest{
			RoomCode:    cl.roomCode,
			CardIndices: indices,
			ChosenColor: chosen,
		})
	case "draw":
		send(cl.conn, network.MsgDrawCard, network.RoomRequest{RoomCode: cl.roomCode})
	case "pass":
		send(cl.conn, network.MsgPassTurn, network.RoomRequest{RoomCode: cl.roomCode})
	case "uno":
		send(cl.conn, network.MsgCallUno, network.RoomRequest{RoomCode: cl.roomCode})
	case "catch":
		if len(fields) < 2 {
			fmt.Println("usage: catch <playerId>")
			return
		}
		send(cl.conn, network.MsgCatchUno, network.CatchUnoRequest{RoomCode: cl.roomCode, TargetID: fields[1]})
	case "help":
		fmt.Println("commands: rooms, create <name>, join <code> <name>, bot, start, play <i...> [color], draw, pass, uno, catch <id>, leave, quit")
	case "quit", "exit":
		os.Exit(0)
	default:
		fmt.Println("unknown command, try 'help'")
	}
}

func main() {
	addr := "localhost:3000"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	cl := &client{conn: conn}
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			cl.handleMessage(msgID, message[4:])
		}
	}()

	go func() {
		<-interrupt
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		os.Exit(0)
	}()

	// Keep the connection alive past the server's read deadline.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := send(conn, network.MsgHeartbeat, nil); err != nil {
				return
			}
		}
	}()

	fmt.Println("Connected. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-done:
			return
		default:
		}
		cl.handleCommand(scanner.Text())
	}
}
