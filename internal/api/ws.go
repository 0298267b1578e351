package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nexus-trading/walletlink/internal/audit"
	"github.com/nexus-trading/walletlink/internal/graph"
	"github.com/nexus-trading/walletlink/internal/solana"
)

// Message types sent on /ws.
const (
	MsgState  = "state"
	MsgResult = "result"
	MsgError  = "error"
)

// AnalyzeRequest is the client frame that starts an analysis.
type AnalyzeRequest struct {
	Address string `json:"address"`
}

// StreamMessage is one server frame. Exactly one of State, Result or Error
// is set, matching Type.
type StreamMessage struct {
	Type    string               `json:"type"`
	State   string               `json:"state,omitempty"`
	Result  *graph.AnalysisResult `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
	Address string               `json:"address,omitempty"`
}

const (
	wsWriteTimeout = 10 * time.Second
	wsIdleTimeout  = 5 * time.Minute
)

// handleWS serves a sequence of analyses on one connection. Each request
// streams its state transitions and ends with a result frame. Invalid
// requests get an error frame and the connection stays open.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("api: websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		var req AnalyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("api: websocket read")
			}
			return
		}

		target, err := solana.ParsePubkey(req.Address)
		if err != nil {
			if s.send(conn, StreamMessage{Type: MsgError, Error: err.Error(), Address: req.Address}) != nil {
				return
			}
			continue
		}

		if err := s.stream(r.Context(), conn, target); err != nil {
			log.Debug().Err(err).Str("address", target.String()).Msg("api: websocket write")
			return
		}
	}
}

// stream runs one analysis and forwards each state change. A failed write
// cancels the analysis.
func (s *Server) stream(parent context.Context, conn *websocket.Conn, target solana.Pubkey) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.AnalyzeTimeout)
	defer cancel()
	done := s.metrics.Track()
	defer done()

	start := time.Now()
	var writeErr error
	result := s.analyzer.AnalyzeWithProgress(ctx, target, func(st graph.State) {
		if writeErr != nil {
			return
		}
		if writeErr = s.send(conn, StreamMessage{Type: MsgState, State: st.String(), Address: target.String()}); writeErr != nil {
			cancel()
		}
	})
	s.record(audit.SourceWS, target, result, time.Since(start))
	if writeErr != nil {
		return writeErr
	}
	return s.send(conn, StreamMessage{Type: MsgResult, Result: result, Address: target.String()})
}

func (s *Server) send(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
