package yolo

import (
	"image"
)

// Candidate is a decoded box before non-maximum suppression
type Candidate struct {
	Box     image.Rectangle
	Score   float32
	ClassID int
}

// Scale maps model input coordinates back to frame pixels
type Scale struct {
	X, Y float32
}

// NewScale returns the scale from a square model input to a frame size
func NewScale(inputSize int, frame image.Point) Scale {
	return Scale{
		X: float32(frame.X) / float32(inputSize),
		Y: float32(frame.Y) / float32(inputSize),
	}
}

// box converts a center/size box in model space into frame pixels
func (s Scale) box(cx, cy, w, h float32) image.Rectangle {
	return image.Rect(
		int((cx-w/2)*s.X),
		int((cy-h/2)*s.Y),
		int((cx+w/2)*s.X),
		int((cy+h/2)*s.Y),
	)
}

// DecodeV5 parses a YOLOv5 output tensor of shape [1, N, 5+classes].
// Each row is cx, cy, w, h, objectness, class scores; the score of a row is
// objectness times its best class score.
func DecodeV5(data []float32, rows, attrs int, scale Scale, minScore float32, keep func(int) bool) []Candidate {
	if attrs < 6 || len(data) < rows*attrs {
		return nil
	}

	var out []Candidate
	for i := 0; i < rows; i++ {
		row := data[i*attrs : (i+1)*attrs]

		obj := row[4]
		if obj < minScore {
			continue
		}

		classID, best := argmax(row[5:])
		score := obj * best
		if score < minScore || !keep(classID) {
			continue
		}

		out = append(out, Candidate{
			Box:     scale.box(row[0], row[1], row[2], row[3]),
			Score:   score,
			ClassID: classID,
		})
	}
	return out
}

// DecodeV8 parses a YOLOv8 output tensor of shape [1, 4+classes, N].
// The tensor is attribute-major, so attribute a of anchor i is data[a*anchors+i].
func DecodeV8(data []float32, attrs, anchors int, scale Scale, minScore float32, keep func(int) bool) []Candidate {
	if attrs < 5 || len(data) < attrs*anchors {
		return nil
	}

	var out []Candidate
	for i := 0; i < anchors; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < attrs; c++ {
			if score := data[c*anchors+i]; score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < minScore || !keep(maxClassID) {
			continue
		}

		out = append(out, Candidate{
			Box: scale.box(
				data[0*anchors+i],
				data[1*anchors+i],
				data[2*anchors+i],
				data[3*anchors+i],
			),
			Score:   maxScore,
			ClassID: maxClassID,
		})
	}
	return out
}

// argmax returns the index and value of the largest score
func argmax(scores []float32) (int, float32) {
	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best, scores[best]
}
