package persistence

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/wfunc/unoserver/room"
)

// FileStore keeps every room snapshot in one JSON file, rewritten on each
// save. Good enough for a single-node deployment; the Postgres store covers
// anything bigger. Game records append to a JSON-lines file next to it.
type FileStore struct {
	path        string
	recordsPath string

	mu    sync.Mutex
	rooms map[string]*room.Snapshot
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:        path,
		recordsPath: path + ".records",
		rooms:       make(map[string]*room.Snapshot),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		return s, nil
	}
	if err := json.Unmarshal(data, &s.rooms); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) SaveRoom(code string, snap *room.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[code] = snap
	return s.flushLocked()
}

func (s *FileStore) DeleteRoom(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return nil
	}
	delete(s.rooms, code)
	return s.flushLocked()
}

func (s *FileStore) LoadRooms() (map[string]*room.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*room.Snapshot, len(s.rooms))
	for code, snap := range s.rooms {
		out[code] = snap
	}
	return out, nil
}

// flushLocked writes through a temp file so a crash mid-write cannot
// truncate the previous state.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.rooms, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) SaveGameRecord(record *GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.recordsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(record)
}

func (s *FileStore) Close() error {
	return nil
}
