package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
)

// Request is one inbound message on the WebSocket control channel: a tagged
// (object, action) pair with opaque JSON params, mirroring the teacher's
// dispatch addressing scheme.
type Request struct {
	ID     string          `json:"id"`
	Object string          `json:"object"`
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request (OK, data, or error), or carries an
// unsolicited push (empty ID) such as a tick snapshot.
type Response struct {
	ID    string      `json:"id,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// RawJSON wraps pre-encoded JSON so it is embedded as-is by
// json.Marshal(Response{...}).
type RawJSON json.RawMessage

// MarshalJSON returns r verbatim.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// NewResponse builds a successful Response carrying pre-marshaled data.
func NewResponse(id string, data []byte) Response {
	return Response{ID: id, Data: RawJSON(data)}
}

// NewOkResponse builds a successful Response carrying a plain message.
func NewOkResponse(id string, message string) Response {
	return Response{ID: id, Data: message}
}

// NewErrorResponse builds a failed Response.
func NewErrorResponse(id string, err error) Response {
	return Response{ID: id, Error: err.Error()}
}

// hubObject handles Requests addressed to one named object (e.g.
// "simulation", "train", "topology", "suggestions"); each is registered into
// hub.objects by its own init().
type hubObject interface {
	dispatch(h *Hub, req Request, conn *connection)
}

// connection wraps one client's WebSocket with a buffered push channel so a
// slow client cannot block the Hub's broadcast loop.
type connection struct {
	ws       *websocket.Conn
	pushChan chan Response
}

// Hub owns the set of live connections and the object registry addressed by
// inbound Requests.
type Hub struct {
	objects map[string]hubObject

	mu          sync.Mutex
	connections map[*connection]bool
}

var hub = &Hub{
	objects:     make(map[string]hubObject),
	connections: make(map[*connection]bool),
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// run blocks serving no central loop itself; connections push straight to
// their own writer goroutines. It exists so server.Run can wait for the hub
// object registry to be ready before accepting HTTP traffic.
func (h *Hub) run(up chan bool) {
	up <- true
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	h.connections[c] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	delete(h.connections, c)
	h.mu.Unlock()
	close(c.pushChan)
}

// broadcast pushes data to every connected client without blocking: for a
// client whose push channel is full, the oldest queued message is dropped to
// make room for the new one (spec.md §5's
// drop-oldest-per-subscriber backpressure policy, applied at the transport
// boundary).
func (h *Hub) broadcast(resp Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		select {
		case c.pushChan <- resp:
		default:
			select {
			case <-c.pushChan:
			default:
			}
			select {
			case c.pushChan <- resp:
			default:
			}
		}
	}
}

// serveWs upgrades an HTTP connection to a WebSocket and runs its read/write
// pumps.
func serveWs(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("WebSocket upgrade failed", "submodule", "hub", "error", err)
		return
	}
	conn := &connection{ws: ws, pushChan: make(chan Response, 256)}
	hub.register(conn)
	logger.Debug("New WebSocket connection", "submodule", "hub", "remote", r.RemoteAddr)

	go conn.writePump()
	conn.readPump()
}

func (c *connection) readPump() {
	defer func() {
		hub.unregister(c)
		c.ws.Close()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var req Request
		if err := c.ws.ReadJSON(&req); err != nil {
			return
		}
		obj, ok := hub.objects[req.Object]
		if !ok {
			c.pushChan <- NewErrorResponse(req.ID, errUnknownObject(req.Object))
			continue
		}
		obj.dispatch(hub, req, c)
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case resp, ok := <-c.pushChan:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(resp); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type unknownObjectError string

func (e unknownObjectError) Error() string { return "unknown object: " + string(e) }

func errUnknownObject(name string) error { return unknownObjectError(name) }
