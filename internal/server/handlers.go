package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/pullupcoach/internal/motivation"
	"github.com/claude/pullupcoach/internal/pose"
)

// maxFrameBytes caps a single uploaded frame. Camera frames arrive as JPEGs
// well under this.
const maxFrameBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// unixSeconds matches the fractional-seconds timestamps the browser client
// already consumes.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

type frameResponse struct {
	RepCount   int         `json:"rep_count"`
	Position   string      `json:"position"`
	Motivation string      `json:"motivation"`
	Timestamp  float64     `json:"timestamp"`
	Debug      *frameDebug `json:"debug,omitempty"`
}

type frameDebug struct {
	FrameCount   int     `json:"frame_count"`
	Direction    string  `json:"direction"`
	Diff         float64 `json:"diff"`
	Mode         string  `json:"mode"`
	SavingFrames bool    `json:"saving_frames"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	s.log.Info("session created", "session", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"timestamp":  unixSeconds(time.Now()),
	})
}

func (s *Server) handleAnalyzeFrame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Unknown IDs start a fresh session rather than 404ing: the client may
	// reconnect after a server restart with the ID it already holds.
	sess := s.sessions.GetOrCreate(id)

	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file upload: " + err.Error()})
		return
	}
	defer file.Close() //nolint:errcheck

	img, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading upload: " + err.Error()})
		return
	}

	kps, err := s.estimator.Detect(r.Context(), img)
	if err != nil {
		s.log.Error("pose detection failed", "session", sess.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "pose estimation unavailable"})
		return
	}

	now := time.Now()
	res := sess.ProcessFrame(kps, now)

	var diff float64
	if len(kps) >= pose.MinKeypoints {
		diff = pose.Differential(kps)
	}

	if err := s.frames.Save(img, res.Frame, diff, string(res.Position), res.Count); err != nil {
		s.log.Error("debug frame save failed", "frame", res.Frame, "error", err)
	}
	if s.frames.Verbose() {
		s.log.Info("frame analyzed",
			"session", sess.ID,
			"frame", res.Frame,
			"diff", diff,
			"position", res.Position,
			"reps", res.Count,
			"direction", res.Direction,
		)
	}

	resp := frameResponse{
		RepCount:   res.Count,
		Position:   string(res.Position),
		Motivation: motivation.ForRep(res.Count),
		Timestamp:  unixSeconds(now),
	}
	if s.frames.Verbose() {
		resp.Debug = &frameDebug{
			FrameCount:   res.Frame,
			Direction:    string(res.Direction),
			Diff:         diff,
			Mode:         string(s.frames.Mode()),
			SavingFrames: s.frames.Enabled(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	sess.Reset()
	s.log.Info("session reset", "session", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"session_id": id,
		"timestamp":  unixSeconds(time.Now()),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.Summarize())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Remove(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	s.log.Info("session removed", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleDebugFrames lists the most recently saved debug frames, newest first.
func (s *Server) handleDebugFrames(w http.ResponseWriter, r *http.Request) {
	if !s.frames.Enabled() {
		writeJSON(w, http.StatusOK, map[string]any{
			"saving_frames": false,
			"frames":        []string{},
		})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	names, err := s.frames.Latest(limit)
	if err != nil {
		s.log.Error("debug frame listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "frame index unavailable"})
		return
	}
	total, err := s.frames.Count()
	if err != nil {
		s.log.Error("debug frame count failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "frame index unavailable"})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saving_frames": true,
		"directory":     s.frames.Dir(),
		"total":         total,
		"frames":        names,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":        "online",
		"mode":          string(s.frames.Mode()),
		"saving_frames": s.frames.Enabled(),
		"sessions":      s.sessions.Len(),
		"timestamp":     unixSeconds(time.Now()),
	}
	if s.frames.Enabled() {
		if n, err := s.frames.Count(); err == nil {
			resp["debug_frames_saved"] = n
			resp["debug_directory"] = s.frames.Dir()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
