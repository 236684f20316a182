package room

import (
	"math/rand"
	"sort"
	"sync"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const codeLength = 4

// Manager is the room directory: the only map from code to live room.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
	opts  Options
}

func NewManager(opts Options) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

// Create registers a new room under a fresh code.
func (m *Manager) Create() *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := m.generateCodeLocked()
	r := NewRoom(code, m.opts)
	m.rooms[code] = r
	return r
}

func (m *Manager) generateCodeLocked() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}

func (m *Manager) Get(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

// Remove drops a room from the directory and cancels its timers.
func (m *Manager) Remove(code string) {
	m.mutex.Lock()
	r, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mutex.Unlock()
	if ok {
		r.Close()
	}
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// List returns the live rooms in stable code order.
func (m *Manager) List() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	codes := make([]string, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rooms := make([]*Room, 0, len(codes))
	for _, code := range codes {
		rooms = append(rooms, m.rooms[code])
	}
	return rooms
}

// Restore registers a room rebuilt from a snapshot, keeping its old code.
func (m *Manager) Restore(snap *Snapshot) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	r := Restore(snap, m.opts)
	m.rooms[r.Code()] = r
	return r
}
