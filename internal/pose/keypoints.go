// Package pose defines the keypoint layout produced by the pose-estimation
// sidecar and the client the rest of the system reaches it through.
package pose

// COCO keypoint indices, as produced by YOLO pose models.
const (
	Nose          = 0
	LeftEye       = 1
	RightEye      = 2
	LeftEar       = 3
	RightEar      = 4
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10

	// MinKeypoints is the shortest keypoint array the counter accepts: it
	// must cover both wrists.
	MinKeypoints = 11
)

// Keypoint is one detected body point in image coordinates. Y grows
// downward. Confidence is in [0, 1].
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Differential returns the signed vertical distance between the average
// wrist and the average shoulder position. While hanging from a bar the
// wrists sit above the shoulders in the image, so the value is negative and
// rises toward zero as the athlete pulls up.
//
// The caller must have verified len(kps) >= MinKeypoints.
func Differential(kps []Keypoint) float64 {
	shoulderY := (kps[LeftShoulder].Y + kps[RightShoulder].Y) / 2
	wristY := (kps[LeftWrist].Y + kps[RightWrist].Y) / 2
	return wristY - shoulderY
}

// MinUpperBodyConfidence returns the lowest confidence among the two
// shoulders and two wrists.
//
// The caller must have verified len(kps) >= MinKeypoints.
func MinUpperBodyConfidence(kps []Keypoint) float64 {
	m := kps[LeftShoulder].Confidence
	for _, i := range [...]int{RightShoulder, LeftWrist, RightWrist} {
		if kps[i].Confidence < m {
			m = kps[i].Confidence
		}
	}
	return m
}
