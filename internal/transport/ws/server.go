package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"landrush.gg/internal/lease/engine"
	"landrush.gg/internal/protocol"
)

// Server bridges websocket sessions to the market loop: one CMD in, one
// RESULT out, plus pushed EVENT messages for scheduler firings.
type Server struct {
	market *engine.Market
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(m *engine.Market, logger *log.Logger) *Server {
	return &Server{
		market: m,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		account := s.handshake(conn)
		if account == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sessionID := uuid.NewString()
		events := s.market.Subscribe(sessionID)
		defer s.market.Unsubscribe(sessionID)

		out := make(chan []byte, 64)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev, okc := <-events:
					if !okc {
						return
					}
					b, _ := json.Marshal(ev)
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				case b, okc := <-out:
					if !okc {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(300 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}

			var raw any
			if err := json.Unmarshal(msg, &raw); err != nil {
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			if verr := protocol.ValidateCmd(raw); verr != nil {
				s.writeResult(out, protocol.ResultMsg{
					Type:    protocol.TypeResult,
					ID:      cmd.ID,
					Code:    protocol.ErrProtoBadRequest,
					Message: "invalid command",
				})
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				s.writeResult(out, protocol.ResultMsg{
					Type:    protocol.TypeResult,
					ID:      cmd.ID,
					Code:    protocol.ErrProtoBadRequest,
					Message: "unsupported protocol version",
				})
				continue
			}

			res := s.market.Do(account, cmd)
			s.writeResult(out, protocol.ResultMsg{
				Type:    protocol.TypeResult,
				ID:      cmd.ID,
				OK:      res.OK,
				Code:    res.Code,
				Message: res.Message,
				Price:   res.Price,
				Refund:  res.Refund,
				Status:  res.Status,
				Regions: res.Regions,
			})
		}
	}
}

func (s *Server) writeResult(out chan []byte, res protocol.ResultMsg) {
	b, err := json.Marshal(res)
	if err != nil {
		s.log.Printf("marshal result: %v", err)
		return
	}
	select {
	case out <- b:
	default:
		s.log.Printf("drop result %s: session write buffer full", res.ID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return ""
	}

	var raw any
	if err := json.Unmarshal(msg, &raw); err != nil {
		return ""
	}
	if err := protocol.ValidateHello(raw); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid HELLO"),
			time.Now().Add(time.Second))
		return ""
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return ""
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unsupported protocol version"),
			time.Now().Add(time.Second))
		return ""
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Account:         hello.Account,
		World:           s.market.World(),
	}
	b, _ := json.Marshal(welcome)
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return ""
	}
	return hello.Account
}
