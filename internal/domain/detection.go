package domain

import (
	"math"
	"time"
)

// BoundingBox is a face rectangle in pixel coordinates.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (b BoundingBox) Width() float64  { return b.Right - b.Left }
func (b BoundingBox) Height() float64 { return b.Bottom - b.Top }

func (b BoundingBox) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Centroid returns ((left+right)/2, (top+bottom)/2).
func (b BoundingBox) Centroid() Point {
	return Point{
		X: (b.Left + b.Right) / 2,
		Y: (b.Top + b.Bottom) / 2,
	}
}

// IoU calculates Intersection over Union between two boxes.
func (b BoundingBox) IoU(o BoundingBox) float64 {
	x1 := math.Max(b.Left, o.Left)
	y1 := math.Max(b.Top, o.Top)
	x2 := math.Min(b.Right, o.Right)
	y2 := math.Min(b.Bottom, o.Bottom)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := b.Area() + o.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Scene tells how the tracker produced a frame's labels.
type Scene string

const (
	// SceneStable: same face count as the previous frame, labels carried over by centroid tracking
	SceneStable Scene = "stable"
	// SceneChanged: count changed or reclassification forced, every face re-matched
	SceneChanged Scene = "changed"
)

// TrackedFace is one labelled detection in a processed frame.
type TrackedFace struct {
	Label    string      `json:"label"`
	Matched  bool        `json:"matched"`
	Distance Distance    `json:"distance"`
	Box      BoundingBox `json:"box"`
	Centroid Point       `json:"centroid"`
}

// FrameResult is the output of one tracker step. LabelsChanged reports whether the
// set of labels differs from the previous frame, ignoring order.
type FrameResult struct {
	SessionID         string        `json:"session_id"`
	Frame             int64         `json:"frame"`
	Scene             Scene         `json:"scene"`
	Faces             []TrackedFace `json:"faces"`
	ReclassifyCounter int           `json:"reclassify_counter"`
	LabelsChanged     bool          `json:"labels_changed"`
	ProcessedAt       time.Time     `json:"processed_at"`
}

// Labels returns the face labels in detection order.
func (r *FrameResult) Labels() []string {
	labels := make([]string, len(r.Faces))
	for i, f := range r.Faces {
		labels[i] = f.Label
	}
	return labels
}
