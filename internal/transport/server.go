// Package transport streams position events from a publish.Hub to remote
// viewers over websockets.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/orrery/internal/publish"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	readLimit  = 1 << 20
)

type Server struct {
	hub      *publish.Hub
	welcome  Welcome
	upgrader websocket.Upgrader
	buffer   int
	log      *slog.Logger
}

type Option func(*Server)

// WithBuffer sets how many events may queue for a slow viewer before it
// starts missing them.
func WithBuffer(n int) Option {
	return func(s *Server) { s.buffer = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithOriginCheck replaces the default allow-all origin policy.
func WithOriginCheck(f func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = f }
}

func NewServer(hub *publish.Hub, welcome Welcome, opts ...Option) *Server {
	s := &Server{
		hub:     hub,
		welcome: welcome,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		buffer: publish.DefaultBuffer,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.welcome.Message == "" {
		s.welcome.Message = "connected"
	}
	return s
}

// Handler serves the stream on both / and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/", s.ServeWS)
	return mux
}

// ListenAndServe serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("viewer stream listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sub := s.hub.Subscribe(s.buffer)
	defer sub.Close()

	log := s.log.With("remote", conn.RemoteAddr().String())
	log.Info("viewer connected")

	go s.writeLoop(conn, sub, log)

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("viewer read failed", "err", err)
			}
			break
		}
		log.Debug("viewer message ignored", "msg", string(msg))
	}
	log.Info("viewer disconnected")
}

// writeLoop is the connection's only writer.
func (s *Server) writeLoop(conn *websocket.Conn, sub *publish.Subscription, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	hello, err := Encode(MsgWelcome, s.welcome)
	if err != nil {
		log.Error("encode welcome", "err", err)
		return
	}
	if err := s.write(conn, websocket.TextMessage, hello); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				_ = s.write(conn, websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "simulation stopped"))
				return
			}
			b, err := Encode(MsgMoved, ev)
			if err != nil {
				log.Error("encode event", "err", err)
				continue
			}
			if err := s.write(conn, websocket.TextMessage, b); err != nil {
				log.Debug("viewer write failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := s.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, kind int, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(kind, b)
}
