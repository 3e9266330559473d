package dashboard

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
)

// liveInterval is how often the live feed pushes a snapshot.
const liveInterval = 2 * time.Second

// liveUpdate is one live feed message.
type liveUpdate struct {
	SessionID string         `json:"session_id"`
	Summary   ledger.Summary `json:"summary"`
}

// HandleLive streams summary snapshots over a WebSocket until the client
// disconnects.
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("live feed accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(liveInterval)
	defer ticker.Stop()

	for {
		update := liveUpdate{SessionID: s.calc.ID(), Summary: s.calc.Summary()}
		if err := wsjson.Write(ctx, conn, update); err != nil {
			log.Debug().Err(err).Msg("live feed client gone")
			return
		}

		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}
