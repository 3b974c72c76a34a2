package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/meshbvh/asset/mesh"
	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/log"
	"github.com/achilleasa/meshbvh/tracer"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum request size.
	maxMessageSize = 8 << 20

	// Pending replies per connection.
	sendQueueSize = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	id   string
}

// Server answers raycast requests against a compiled mesh over websockets.
type Server struct {
	logger   log.Logger
	mesh     *mesh.Mesh
	pool     *tracer.Pool
	upgrader websocket.Upgrader

	lock    sync.Mutex
	clients map[*client]bool

	requests uint64
}

// Create a server for m. Ray batches are split across the tracers of pool.
func New(m *mesh.Mesh, pool *tracer.Pool) *Server {
	return &Server{
		logger: log.New("server"),
		mesh:   m,
		pool:   pool,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// Get the http handler serving the /raycast websocket endpoint and the
// /stats endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/raycast", s.serveWS)
	mux.HandleFunc("/stats", s.serveStats)
	return mux
}

// Listen on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()
	s.logger.Noticef("serving mesh %q on %s", s.mesh.Name, addr)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeClients()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

// Close all open websocket connections.
func (s *Server) closeClients() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.clients {
		c.conn.Close()
		delete(s.clients, c)
	}
}

type statsReply struct {
	Mesh     string            `json:"mesh"`
	Tree     bvh.Stats         `json:"tree"`
	Batch    tracer.BatchStats `json:"last_batch"`
	Requests uint64            `json:"requests"`
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(statsReply{
		Mesh:     s.mesh.Name,
		Tree:     s.mesh.Tree.Stats(),
		Batch:    s.pool.Stats(),
		Requests: atomic.LoadUint64(&s.requests),
	})
	if err != nil {
		s.logger.Errorf("stats: %v", err)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueueSize), done: make(chan struct{}), id: r.RemoteAddr}
	s.lock.Lock()
	s.clients[c] = true
	s.lock.Unlock()
	s.logger.Infof("client %s connected", c.id)

	go s.writePump(c)
	s.readPump(c)
}

// Process requests until the peer goes away. Replies are queued for the
// writer in request order.
func (s *Server) readPump(c *client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.lock.Lock()
		delete(s.clients, c)
		s.lock.Unlock()
		close(c.send)
		s.logger.Infof("client %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warningf("client %s: read error: %v", c.id, err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		reply, err := json.Marshal(s.handle(ctx, msg))
		if err != nil {
			s.logger.Errorf("client %s: encoding reply: %v", c.id, err)
			return
		}
		select {
		case c.send <- reply:
		case <-c.done:
			return
		}
	}
}

// Run a single request.
func (s *Server) handle(ctx context.Context, msg []byte) Response {
	atomic.AddUint64(&s.requests, 1)

	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return Response{Error: "malformed request: " + err.Error()}
	}

	q, err := req.query(s.mesh.Tree.LocalRay)
	if err != nil {
		return Response{Id: req.Id, Error: err.Error()}
	}

	hits, err := s.pool.Cast(ctx, q)
	if err != nil {
		return Response{Id: req.Id, Error: err.Error()}
	}

	for idx := range hits {
		if hits[idx] == nil {
			hits[idx] = []bvh.Hit{}
		}
	}
	return Response{Id: req.Id, Hits: hits}
}

// Write queued replies and keep the connection alive with periodic pings.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Warningf("client %s: write error: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
