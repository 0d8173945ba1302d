package session

import (
	"sync"

	"github.com/gorilla/websocket"
)

// safeConn serializes writes onto a *websocket.Conn: heartbeat sends and
// subscribe sends both originate outside the read goroutine, and gorilla's
// connections are not safe for concurrent writers.
type safeConn struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

func newSafeConn(c *websocket.Conn) *safeConn {
	return &safeConn{conn: c}
}

func (s *safeConn) WriteMessage(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}
