package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/unoserver/broadcast"
	"github.com/wfunc/unoserver/config"
	"github.com/wfunc/unoserver/logger"
	"github.com/wfunc/unoserver/monitor"
	"github.com/wfunc/unoserver/network"
	"github.com/wfunc/unoserver/persistence"
	"github.com/wfunc/unoserver/room"
	unorpc "github.com/wfunc/unoserver/rpc"
	"github.com/wfunc/unoserver/services"
	"github.com/wfunc/unoserver/session"
	"github.com/wfunc/unoserver/timer"
)

// Clients must heartbeat within twice this interval or the read loop drops
// them into the disconnect path.
const heartbeatInterval = 30 * time.Second

// GameServer owns the WebSocket endpoint and routes every inbound intent to
// the room it belongs to. Rooms serialize their own state; the server only
// does session bookkeeping around them.
type GameServer struct {
	addr     string
	upgrader websocket.Upgrader

	rooms    *room.Manager
	sessions *session.Manager
	store    persistence.Store
	records  *services.RecordService
	timers   *timer.Manager
	mon      *monitor.Monitor
	cfg      *config.Config

	rpcServer *unorpc.Server

	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, store persistence.Store, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:         cfg.Server.ListenAddress,
		sessions:     session.NewManager(),
		store:        store,
		records:      services.NewRecordService(store),
		timers:       timer.NewManager(),
		mon:          mon,
		cfg:          cfg,
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.rooms = room.NewManager(room.Options{
		MaxPlayers:    cfg.Game.MaxPlayers,
		StartingCards: cfg.Game.StartingCards,
		DealPacing:    cfg.Game.DealPacing,
		BotDelayMin:   cfg.Game.BotDelayMin,
		BotDelayMax:   cfg.Game.BotDelayMax,
		Timers:        s.timers,
		OnChange:      s.saveRoom,
		OnGameOver:    s.onGameOver,
	})

	rpcServer, err := unorpc.NewServer(cfg.Server.RPCAddress, unorpc.NewOpsService(s.rooms))
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	return s
}

// RestoreRooms brings every persisted room back to life.
func (s *GameServer) RestoreRooms() {
	snaps, err := s.store.LoadRooms()
	if err != nil {
		logger.Log.Errorf("Failed to load saved rooms: %v", err)
		return
	}
	for _, snap := range snaps {
		r := s.rooms.Restore(snap)
		r.Resume()
	}
	if len(snaps) > 0 {
		logger.Log.Infof("Restored %d rooms from save state", len(snaps))
	}
	s.mon.Metrics.ActiveRooms.Set(float64(s.rooms.Count()))
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
	s.store.Close()
}

func (s *GameServer) saveRoom(code string, snap *room.Snapshot) {
	if err := s.store.SaveRoom(code, snap); err != nil {
		logger.Log.Warnf("Failed to save room %s: %v", code, err)
	}
}

func (s *GameServer) onGameOver(code string, result network.GameOver) {
	s.mon.Metrics.GamesCompleted.Inc()
	s.records.RecordGameOver(code, result)
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessions.Add(sess)
	s.mon.Metrics.OnlinePlayers.Set(float64(s.sessions.Count()))

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessions.Remove(sess.GetID())
		s.mon.Metrics.OnlinePlayers.Set(float64(s.sessions.Count()))
		s.handleDisconnect(sess)
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// handleDisconnect keeps a mid-game seat warm for the grace period so its
// player can rejoin; lobby seats are dropped immediately.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	code := sess.Room()
	if code == "" {
		return
	}
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}

	playerID := sess.GetID()
	if !r.Started() {
		s.removeFromRoom(r, playerID)
		return
	}

	if !r.MarkDisconnected(playerID) {
		return
	}
	logger.Log.Infof("Player %s disconnected from room %s, holding seat for %s",
		sess.Name, code, s.cfg.Game.GracePeriod)

	s.timers.Schedule(s.cfg.Game.GracePeriod, func() {
		if r.IsDisconnected(playerID) {
			logger.Log.Infof("Grace period expired for %s in room %s", sess.Name, code)
			s.removeFromRoom(r, playerID)
		}
	})
}

func (s *GameServer) removeFromRoom(r *room.Room, playerID string) {
	r.RemovePlayer(playerID)
	if r.Empty() {
		code := r.Code()
		s.rooms.Remove(code)
		if err := s.store.DeleteRoom(code); err != nil {
			logger.Log.Warnf("Failed to delete saved room %s: %v", code, err)
		}
		logger.Log.Infof("Room %s is empty, deleted", code)
	}
	s.mon.Metrics.ActiveRooms.Set(float64(s.rooms.Count()))
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	switch packet.MsgID {
	case network.MsgHeartbeat:
		sess.Touch()
		return
	case network.MsgGetRooms:
		s.handleGetRooms(sess)
	case network.MsgCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgRejoinRoom:
		s.handleRejoinRoom(sess, packet)
	case network.MsgLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.MsgAddBot:
		s.handleAddBot(sess)
	case network.MsgStartGame:
		s.handleStartGame(sess, packet)
	case network.MsgPlayCard:
		s.handlePlayCard(sess, packet)
	case network.MsgDrawCard:
		s.withRoom(sess, func(r *room.Room) { r.DrawCard(sess.GetID()) })
	case network.MsgPassTurn:
		s.withRoom(sess, func(r *room.Room) { r.PassTurn(sess.GetID()) })
	case network.MsgCallUno:
		s.withRoom(sess, func(r *room.Room) { r.CallUno(sess.GetID()) })
	case network.MsgCatchUno:
		s.handleCatchUno(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		return
	}
	s.mon.ObserveIntent(intentName(packet.MsgID), start)
}

func intentName(msgID uint16) string {
	switch msgID {
	case network.MsgGetRooms:
		return "get_rooms"
	case network.MsgCreateRoom:
		return "create_room"
	case network.MsgJoinRoom:
		return "join_room"
	case network.MsgRejoinRoom:
		return "rejoin_room"
	case network.MsgLeaveRoom:
		return "leave_room"
	case network.MsgAddBot:
		return "add_bot"
	case network.MsgStartGame:
		return "start_game"
	case network.MsgPlayCard:
		return "play_card"
	case network.MsgDrawCard:
		return "draw_card"
	case network.MsgPassTurn:
		return "pass_turn"
	case network.MsgCallUno:
		return "call_uno"
	case network.MsgCatchUno:
		return "catch_uno"
	}
	return "unknown"
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	sess.SendJSON(network.MsgError, network.ErrorMessage{Message: message})
}

// withRoom resolves the session's room and runs fn against it.
func (s *GameServer) withRoom(sess *session.Session, fn func(r *room.Room)) {
	code := sess.Room()
	if code == "" {
		s.sendError(sess, "You are not in a room")
		return
	}
	r, ok := s.rooms.Get(code)
	if !ok {
		s.sendError(sess, "Room not found")
		return
	}
	fn(r)
}

func (s *GameServer) handleGetRooms(sess *session.Session) {
	list := network.RoomList{Rooms: []network.RoomSummary{}}
	for _, r := range s.rooms.List() {
		if r.Started() || r.PlayerCount() >= s.cfg.Game.MaxPlayers {
			continue
		}
		list.Rooms = append(list.Rooms, network.RoomSummary{
			Code:        r.Code(),
			PlayerCount: r.PlayerCount(),
			MaxPlayers:  s.cfg.Game.MaxPlayers,
			HostName:    r.HostName(),
		})
	}
	sess.SendJSON(network.MsgRoomList, list)
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req network.CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.sendError(sess, "Name is required")
		return
	}

	r := s.rooms.Create()
	sess.Name = name
	sess.SetRoom(r.Code())
	r.AddPlayer(sess.GetID(), name, broadcast.NewConnActor(sess.Conn))
	s.mon.Metrics.ActiveRooms.Set(float64(s.rooms.Count()))

	logger.Log.Infof("Session %s (%s) created room %s", sess.GetID(), name, r.Code())
	sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
		Success:  true,
		RoomCode: r.Code(),
		PlayerID: sess.GetID(),
		IsHost:   true,
	})
	r.BroadcastLobby()
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	if name == "" || code == "" {
		s.sendError(sess, "Name and room code are required")
		return
	}

	r, ok := s.rooms.Get(code)
	if !ok {
		sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
			Success: false, Error: "Room not found",
		})
		return
	}

	// A disconnected seat under the same name is reclaimed rather than
	// joined fresh, so a dropped player can pick their game back up.
	if r.HasDisconnectedSeat(name) {
		s.rejoin(sess, r, name)
		return
	}
	if r.HasConnectedName(name) {
		sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
			Success: false, Error: "Name already taken in this room",
		})
		return
	}
	if r.Started() {
		sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
			Success: false, Error: "Game already in progress",
		})
		return
	}

	s.joinFresh(sess, r, name)
}

func (s *GameServer) joinFresh(sess *session.Session, r *room.Room, name string) {
	sess.Name = name
	if !r.AddPlayer(sess.GetID(), name, broadcast.NewConnActor(sess.Conn)) {
		sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
			Success: false, Error: "Room is full",
		})
		return
	}
	sess.SetRoom(r.Code())

	logger.Log.Infof("Session %s (%s) joined room %s", sess.GetID(), name, r.Code())
	sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
		Success:  true,
		RoomCode: r.Code(),
		PlayerID: sess.GetID(),
		IsHost:   r.IsHost(sess.GetID()),
	})
}

func (s *GameServer) handleRejoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.RejoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))

	r, ok := s.rooms.Get(code)
	if !ok {
		sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
			Success: false, Error: "Room not found",
		})
		return
	}
	s.rejoin(sess, r, name)
}

func (s *GameServer) rejoin(sess *session.Session, r *room.Room, name string) {
	found, isHost, started := r.Reconnect(name, sess.GetID(), broadcast.NewConnActor(sess.Conn))
	if !found {
		// Nothing to reclaim. Before the game starts that just means a
		// fresh join; mid-game there is no seat to give out.
		if !r.Started() && !r.HasConnectedName(name) {
			s.joinFresh(sess, r, name)
			return
		}
		sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
			Success: false, Error: "No seat to rejoin",
		})
		return
	}
	sess.Name = name
	sess.SetRoom(r.Code())

	logger.Log.Infof("Session %s (%s) rejoined room %s", sess.GetID(), name, r.Code())
	sess.SendJSON(network.MsgRoomJoined, network.RoomJoined{
		Success:        true,
		RoomCode:       r.Code(),
		PlayerID:       sess.GetID(),
		IsHost:         isHost,
		GameInProgress: started,
	})
}

func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	s.withRoom(sess, func(r *room.Room) {
		s.removeFromRoom(r, sess.GetID())
		sess.SetRoom("")
	})
}

func (s *GameServer) handleAddBot(sess *session.Session) {
	s.withRoom(sess, func(r *room.Room) {
		if !r.IsHost(sess.GetID()) {
			s.sendError(sess, "Only the host can add bots")
			return
		}
		if r.Started() {
			s.sendError(sess, "Cannot add bots mid-game")
			return
		}
		if !r.AddBot(uuid.New().String()) {
			s.sendError(sess, "Room is full")
		}
	})
}

func (s *GameServer) handleStartGame(sess *session.Session, packet *network.Packet) {
	var req network.StartGameRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	s.withRoom(sess, func(r *room.Room) {
		if !r.IsHost(sess.GetID()) {
			s.sendError(sess, "Only the host can start the game")
			return
		}
		if r.PlayerCount() < 2 {
			s.sendError(sess, "Need at least 2 players to start")
			return
		}
		r.StartGame(req.StartingCards)
	})
}

func (s *GameServer) handlePlayCard(sess *session.Session, packet *network.Packet) {
	var req network.PlayCardRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	s.withRoom(sess, func(r *room.Room) {
		r.PlayCard(sess.GetID(), req.CardIndices, req.ChosenColor)
	})
}

func (s *GameServer) handleCatchUno(sess *session.Session, packet *network.Packet) {
	var req network.CatchUnoRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	s.withRoom(sess, func(r *room.Room) {
		r.CatchUno(sess.GetID(), req.TargetID)
	})
}
