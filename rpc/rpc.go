package rpc

import (
	"fmt"
	"net"
	"net/rpc"

	"github.com/wfunc/unoserver/logger"
	"github.com/wfunc/unoserver/room"
)

// Server manages the ops RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string, ops *OpsService) (*Server, error) {
	if err := rpc.Register(ops); err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins serving RPC requests; blocks until the listener closes.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// OpsService exposes read-only room inspection over net/rpc, for operator
// tooling.
type OpsService struct {
	rooms *room.Manager
}

func NewOpsService(rooms *room.Manager) *OpsService {
	return &OpsService{rooms: rooms}
}

type ListRoomsArgs struct{}

type RoomInfo struct {
	Code        string
	PlayerCount int
	HostName    string
	Started     bool
}

type ListRoomsReply struct {
	Rooms []RoomInfo
}

func (s *OpsService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, r := range s.rooms.List() {
		reply.Rooms = append(reply.Rooms, RoomInfo{
			Code:        r.Code(),
			PlayerCount: r.PlayerCount(),
			HostName:    r.HostName(),
			Started:     r.Started(),
		})
	}
	return nil
}

type GetRoomArgs struct {
	Code string
}

type GetRoomReply struct {
	Snapshot *room.Snapshot
}

func (s *OpsService) GetRoom(args *GetRoomArgs, reply *GetRoomReply) error {
	r, ok := s.rooms.Get(args.Code)
	if !ok {
		return fmt.Errorf("room %s not found", args.Code)
	}
	reply.Snapshot = r.Snapshot()
	return nil
}
