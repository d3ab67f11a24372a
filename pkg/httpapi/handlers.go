package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest reports a snapshot abandoned by the client.
const statusClientClosedRequest = 499

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse describes the session.
type StatusResponse struct {
	Name              string     `json:"name"`
	SessionID         string     `json:"session_id"`
	State             string     `json:"state"`
	Target            string     `json:"target"`
	Frames            uint64     `json:"frames"`
	Fragments         uint64     `json:"fragments"`
	KeepAlives        uint64     `json:"keepalives"`
	HandshakeAttempts uint64     `json:"handshake_attempts"`
	Faults            uint64     `json:"faults"`
	Resets            uint64     `json:"resets"`
	LastFrame         *time.Time `json:"last_frame,omitempty"`
	LastFault         string     `json:"last_fault,omitempty"`
}

func (s *Server) handleSnapshot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.SnapshotTimeout)
	defer cancel()

	frame, err := s.camera.RetrieveImage(ctx)
	if err != nil {
		status := http.StatusServiceUnavailable
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		case errors.Is(err, context.Canceled):
			status = statusClientClosedRequest
		}
		if s.log != nil {
			s.log.Warnf("snapshot failed: %v", err)
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/jpeg", frame)
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.camera.Stats()

	resp := StatusResponse{
		Name:              s.config.Name,
		SessionID:         st.ID,
		State:             st.State.String(),
		Target:            st.Target,
		Frames:            st.Frames,
		Fragments:         st.Fragments,
		KeepAlives:        st.KeepAlives,
		HandshakeAttempts: st.HandshakeAttempts,
		Faults:            st.Faults,
		Resets:            st.Resets,
		LastFault:         st.LastFault,
	}
	if !st.LastFrame.IsZero() {
		t := st.LastFrame
		resp.LastFrame = &t
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
