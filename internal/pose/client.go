package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Estimator turns an encoded camera frame into a keypoint array. A nil slice
// with a nil error means no person was detected in the frame.
type Estimator interface {
	Detect(ctx context.Context, image []byte) ([]Keypoint, error)
}

// Client calls a pose-estimation sidecar over HTTP. The sidecar owns model
// loading, image decoding and resizing; this process only ships frame bytes.
type Client struct {
	endpoint string
	http     *http.Client
}

// detectResponse mirrors the sidecar's JSON. Keypoints arrive as
// [x, y, confidence] triples in COCO order.
type detectResponse struct {
	Detected  bool         `json:"detected"`
	Keypoints [][3]float64 `json:"keypoints"`
}

// NewClient creates a client for the sidecar at endpoint (scheme://host:port,
// no trailing slash).
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Detect posts the frame to the sidecar's /detect endpoint and decodes the
// keypoints of the primary detected person.
func (c *Client) Detect(ctx context.Context, image []byte) ([]Keypoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/detect", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("building detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling pose sidecar: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pose sidecar returned status %d", resp.StatusCode)
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decoding detect response: %w", err)
	}
	if !dr.Detected || len(dr.Keypoints) == 0 {
		return nil, nil
	}

	kps := make([]Keypoint, len(dr.Keypoints))
	for i, t := range dr.Keypoints {
		kps[i] = Keypoint{X: t[0], Y: t[1], Confidence: t[2]}
	}
	return kps, nil
}
