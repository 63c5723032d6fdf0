package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// handleWebSocket upgrades the connection and serves one simulate request per
// text frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !s.connLimiter.TryAcquire(ip) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		logger.Debug("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(ip)
		return
	}

	go func() {
		defer s.connLimiter.Release(ip)
		defer conn.Close()
		s.serveSession(conn, ip)
	}()
}

// serveSession reads frames until the peer goes away. Replies are written from
// this goroutine only; the pinger uses WriteControl, which is safe alongside it.
func (s *Server) serveSession(conn *websocket.Conn, ip string) {
	logger.Info("WebSocket session opened",
		"client_ip", ip,
		"ip_sessions", s.connLimiter.SessionsFor(ip))
	conn.SetReadLimit(s.cfg.Server.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	throttle := newFrameThrottle(s.cfg.Server.Frames)
	served := 0
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warning("WebSocket read failed", "client_ip", ip, "error", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			continue
		}

		var reply any
		if ok, wait := throttle.allow(); ok {
			reply = s.handleFrame(data)
		} else {
			reply = errorResponse{Error: fmt.Sprintf("sending requests too quickly; retry in %ds", int(wait.Seconds())+1)}
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warning("WebSocket write failed", "client_ip", ip, "error", err)
			break
		}
		served++
	}
	logger.Info("WebSocket session closed", "client_ip", ip, "requests", served)
}

// handleFrame turns one frame into a Result or an error reply.
func (s *Server) handleFrame(data []byte) any {
	var req simulateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse{Error: fmt.Errorf("%w: %v", errBadRequest, err).Error()}
	}

	ctx, cancel := s.frameContext()
	defer cancel()
	res, err := s.simulate(ctx, req)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			logger.Error("WebSocket simulate failed", "error", err)
		}
		return errorResponse{Error: err.Error()}
	}
	return res
}

// frameContext bounds one frame's work by the request timeout.
func (s *Server) frameContext() (context.Context, context.CancelFunc) {
	if s.cfg.Server.RequestTimeout > 0 {
		return context.WithTimeout(context.Background(), s.cfg.Server.RequestTimeout)
	}
	return context.WithCancel(context.Background())
}

func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				return
			}
		}
	}
}
