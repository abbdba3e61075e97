package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	collectionPhotos   = "photos"
	collectionContests = "contests"
)

type changeEvent struct {
	Collection string `json:"collection"`
	Action     string `json:"action"`
	Row        any    `json:"row"`
}

// feedConn serializes writes; the websocket library allows only one
// concurrent writer per connection.
type feedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *feedConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// changeHub fans row-change events out to websocket subscribers, one group
// per collection.
type changeHub struct {
	mu   sync.Mutex
	subs map[string]map[*feedConn]struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{
		subs: make(map[string]map[*feedConn]struct{}),
	}
}

func (h *changeHub) Add(collection string, conn *websocket.Conn) *feedConn {
	fc := &feedConn{conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.subs[collection]
	if group == nil {
		group = make(map[*feedConn]struct{})
		h.subs[collection] = group
	}
	group[fc] = struct{}{}
	return fc
}

func (h *changeHub) Remove(collection string, fc *feedConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.subs[collection]
	if group == nil {
		return
	}
	delete(group, fc)
	_ = fc.conn.Close()
	if len(group) == 0 {
		delete(h.subs, collection)
	}
}

func (h *changeHub) Send(fc *feedConn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = fc.write(data)
}

func (h *changeHub) Broadcast(collection string, payload any) {
	h.mu.Lock()
	group := h.subs[collection]
	conns := make([]*feedConn, 0, len(group))
	for fc := range group {
		conns = append(conns, fc)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, fc := range conns {
		if err := fc.write(data); err != nil {
			h.Remove(collection, fc)
		}
	}
}

func validCollection(name string) bool {
	return name == collectionPhotos || name == collectionContests
}

func (s *Server) handleChangeFeed(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	if !validCollection(collection) {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("changefeed connected collection=%s remote=%s", collection, r.RemoteAddr)
	fc := s.feed.Add(collection, conn)
	s.feed.Send(fc, map[string]any{
		"collection": collection,
		"subscribed": true,
	})
	go s.readChangeFeed(collection, fc)
}

func (s *Server) readChangeFeed(collection string, fc *feedConn) {
	defer s.feed.Remove(collection, fc)
	for {
		if _, _, err := fc.conn.ReadMessage(); err != nil {
			log.Printf("changefeed disconnected collection=%s error=%v", collection, err)
			return
		}
	}
}

func (s *Server) notifyChange(collection, action string, row any) {
	if s.feed == nil {
		return
	}
	s.feed.Broadcast(collection, changeEvent{
		Collection: collection,
		Action:     action,
		Row:        row,
	})
}
