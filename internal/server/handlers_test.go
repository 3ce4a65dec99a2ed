package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/pullupcoach/internal/counter"
	"github.com/claude/pullupcoach/internal/debugframes"
	"github.com/claude/pullupcoach/internal/pose"
	"github.com/claude/pullupcoach/internal/session"
)

type estimatorFunc func(ctx context.Context, img []byte) ([]pose.Keypoint, error)

func (f estimatorFunc) Detect(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
	return f(ctx, img)
}

func testKeypoints(diff, confidence float64) []pose.Keypoint {
	kps := make([]pose.Keypoint, pose.MinKeypoints)
	for i := range kps {
		kps[i] = pose.Keypoint{X: 320, Y: 100, Confidence: confidence}
	}
	kps[pose.LeftWrist].Y = 100 + diff
	kps[pose.RightWrist].Y = 100 + diff
	return kps
}

// onePullUp walks a full hang-pull-hang cycle: confirmed down at -70,
// confirmed up at -30, 40 units of range.
var onePullUp = []float64{
	-10, -10, -10, -10, -10,
	-30, -50, -70, -90, -110,
	-110, -110,
	-90, -70, -50, -30, -10,
}

func newTestServer(t *testing.T, est pose.Estimator, mode debugframes.Mode, apiKey string) (*Server, *session.Manager) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	frames, err := debugframes.Open(mode, t.TempDir(), log)
	if err != nil {
		t.Fatalf("opening frame store: %v", err)
	}
	t.Cleanup(func() { frames.Close() }) //nolint:errcheck
	mgr := session.NewManager(counter.DefaultConfig())
	return New(mgr, est, frames, apiKey, log), mgr
}

func frameUpload(t *testing.T, payload []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "frame.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postFrame(t *testing.T, srv *Server, sessionID string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := frameUpload(t, payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionID+"/frames", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateSession(t *testing.T) {
	srv, mgr := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	resp := decodeBody[map[string]any](t, w)
	id, _ := resp["session_id"].(string)
	if id == "" {
		t.Fatal("response has no session_id")
	}
	if _, ok := mgr.Get(id); !ok {
		t.Error("created session not registered in manager")
	}
}

func TestAnalyzeFrameCountsRep(t *testing.T) {
	// The estimator replays one keypoint set per request, scripted from the
	// pull-up differential sequence.
	i := 0
	est := estimatorFunc(func(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
		kps := testKeypoints(onePullUp[i], 1.0)
		i++
		return kps, nil
	})
	srv, _ := newTestServer(t, est, debugframes.ModeDebug, "")

	var last frameResponse
	for range onePullUp {
		w := postFrame(t, srv, "workout-1", []byte("jpeg"))
		if w.Code != http.StatusOK {
			t.Fatalf("frame %d: status = %d, body %s", i, w.Code, w.Body.String())
		}
		last = decodeBody[frameResponse](t, w)
	}

	if last.RepCount != 1 {
		t.Errorf("rep_count = %d after full cycle, want 1", last.RepCount)
	}
	if !strings.HasPrefix(last.Motivation, "Rep 1 - ") {
		t.Errorf("motivation = %q, want per-rep message", last.Motivation)
	}
	if last.Debug == nil {
		t.Fatal("debug block missing in debug mode")
	}
	if last.Debug.FrameCount != len(onePullUp) {
		t.Errorf("frame_count = %d, want %d", last.Debug.FrameCount, len(onePullUp))
	}
	if !last.Debug.SavingFrames {
		t.Error("saving_frames = false in debug mode")
	}
	if last.Debug.Diff != -10 {
		t.Errorf("diff = %v, want -10 (final frame)", last.Debug.Diff)
	}
}

func TestAnalyzeFrameNoPerson(t *testing.T) {
	est := estimatorFunc(func(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
		return nil, nil
	})
	srv, _ := newTestServer(t, est, debugframes.ModeNonDebug, "")

	w := postFrame(t, srv, "s1", []byte("jpeg"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeBody[frameResponse](t, w)
	if resp.Position != string(counter.PositionNoPerson) {
		t.Errorf("position = %q, want %q", resp.Position, counter.PositionNoPerson)
	}
	if resp.Motivation != "Let's get that first rep!" {
		t.Errorf("motivation = %q, want warm-up prompt", resp.Motivation)
	}
	if resp.Debug != nil {
		t.Error("debug block present in non_debug mode")
	}
}

func TestAnalyzeFrameLowConfidence(t *testing.T) {
	est := estimatorFunc(func(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
		return testKeypoints(-50, 0.2), nil
	})
	srv, _ := newTestServer(t, est, debugframes.ModeNonDebug, "")

	resp := decodeBody[frameResponse](t, postFrame(t, srv, "s1", []byte("jpeg")))
	if resp.Position != string(counter.PositionLowConfidence) {
		t.Errorf("position = %q, want %q", resp.Position, counter.PositionLowConfidence)
	}
}

func TestAnalyzeFrameMissingUpload(t *testing.T) {
	srv, _ := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/frames", strings.NewReader("not multipart"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeFrameEstimatorDown(t *testing.T) {
	est := estimatorFunc(func(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
		return nil, errors.New("connection refused")
	})
	srv, _ := newTestServer(t, est, debugframes.ModeNonDebug, "")

	w := postFrame(t, srv, "s1", []byte("jpeg"))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestResetSession(t *testing.T) {
	est := estimatorFunc(func(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
		return testKeypoints(-50, 1.0), nil
	})
	srv, mgr := newTestServer(t, est, debugframes.ModeNonDebug, "")
	sess := mgr.GetOrCreate("s1")
	postFrame(t, srv, "s1", []byte("jpeg"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/reset", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeBody[map[string]any](t, w)
	if resp["status"] != "success" {
		t.Errorf("status field = %v, want success", resp["status"])
	}
	if snap := sess.Snapshot(); snap.Frames != 0 {
		t.Errorf("frames = %d after reset, want 0", snap.Frames)
	}
}

func TestResetUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/ghost/reset", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSession(t *testing.T) {
	srv, mgr := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")
	mgr.GetOrCreate("s1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	snap := decodeBody[session.Snapshot](t, w)
	if snap.ID != "s1" || snap.Count != 0 {
		t.Errorf("snapshot = %+v, want fresh session s1", snap)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/ghost", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", w.Code)
	}
}

func TestSessionSummary(t *testing.T) {
	srv, mgr := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")
	mgr.GetOrCreate("s1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/summary", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	sum := decodeBody[session.Summary](t, w)
	if sum.Reps != 0 {
		t.Errorf("reps = %d, want 0", sum.Reps)
	}
	if sum.MeanRepIntervalSec != nil {
		t.Error("pace stats present with no reps")
	}
}

func TestDeleteSession(t *testing.T) {
	srv, mgr := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")
	mgr.GetOrCreate("s1")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if mgr.Len() != 0 {
		t.Error("session still registered after delete")
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestStatus(t *testing.T) {
	est := estimatorFunc(func(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
		return testKeypoints(-50, 1.0), nil
	})
	srv, mgr := newTestServer(t, est, debugframes.ModeDebug, "")
	mgr.GetOrCreate("s1")
	postFrame(t, srv, "s1", []byte("jpeg"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeBody[map[string]any](t, w)
	if resp["status"] != "online" {
		t.Errorf("status = %v, want online", resp["status"])
	}
	if resp["mode"] != "debug" {
		t.Errorf("mode = %v, want debug", resp["mode"])
	}
	if resp["sessions"].(float64) != 1 {
		t.Errorf("sessions = %v, want 1", resp["sessions"])
	}
	if resp["debug_frames_saved"].(float64) != 1 {
		t.Errorf("debug_frames_saved = %v, want 1", resp["debug_frames_saved"])
	}
}

func TestDebugFrames(t *testing.T) {
	est := estimatorFunc(func(ctx context.Context, img []byte) ([]pose.Keypoint, error) {
		return testKeypoints(-50, 1.0), nil
	})
	srv, _ := newTestServer(t, est, debugframes.ModeDebug, "")
	postFrame(t, srv, "s1", []byte("jpeg"))
	postFrame(t, srv, "s1", []byte("jpeg"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debug/frames?limit=1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeBody[struct {
		SavingFrames bool     `json:"saving_frames"`
		Total        int      `json:"total"`
		Frames       []string `json:"frames"`
	}](t, w)
	if !resp.SavingFrames {
		t.Error("saving_frames = false in debug mode")
	}
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if len(resp.Frames) != 1 {
		t.Fatalf("got %d frames with limit=1, want 1", len(resp.Frames))
	}
	if !strings.HasPrefix(resp.Frames[0], "frame_000002_") {
		t.Errorf("frames[0] = %q, want the newest frame", resp.Frames[0])
	}
}

func TestDebugFramesDisabled(t *testing.T) {
	srv, _ := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debug/frames", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeBody[struct {
		SavingFrames bool     `json:"saving_frames"`
		Frames       []string `json:"frames"`
	}](t, w)
	if resp.SavingFrames {
		t.Error("saving_frames = true with saving disabled")
	}
	if len(resp.Frames) != 0 {
		t.Errorf("frames = %v, want empty", resp.Frames)
	}
}

func TestDebugFramesBadLimit(t *testing.T) {
	srv, _ := newTestServer(t, estimatorFunc(nil), debugframes.ModeDebug, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debug/frames?limit=zero", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, estimatorFunc(nil), debugframes.ModeNonDebug, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
}
