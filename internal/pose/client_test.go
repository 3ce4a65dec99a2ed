package pose

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientDetect(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("path = %q, want /detect", r.URL.Path)
		}
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"detected": true,
			"keypoints": [][]float64{
				{1, 2, 0.9}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0},
				{100, 300, 0.8}, {110, 302, 0.85}, {0, 0, 0}, {0, 0, 0},
				{90, 180, 0.7}, {95, 182, 0.75},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	kps, err := c.Detect(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(gotBody) != "jpeg-bytes" {
		t.Errorf("sidecar received %q, want frame bytes", gotBody)
	}
	if len(kps) != 11 {
		t.Fatalf("got %d keypoints, want 11", len(kps))
	}
	if kps[LeftShoulder].Y != 300 || kps[LeftShoulder].Confidence != 0.8 {
		t.Errorf("left shoulder = %+v, want Y=300 conf=0.8", kps[LeftShoulder])
	}
	if kps[LeftWrist].Y != 180 {
		t.Errorf("left wrist Y = %v, want 180", kps[LeftWrist].Y)
	}
}

func TestClientDetectNoPerson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"detected": false}) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	kps, err := c.Detect(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kps != nil {
		t.Errorf("keypoints = %v, want nil for no detection", kps)
	}
}

func TestClientDetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Detect(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestClientDetectBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json") //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Detect(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error for malformed response")
	}
}
