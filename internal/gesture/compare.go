package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/handtracker/internal/detector"
)

// Scoring constants. A unit of normalized distance costs ten points.
const (
	pointsPerUnit = 10.0
	weakScore     = 70.0
	segmentJump   = 15.0
)

// Feedback messages.
const (
	MessageGood    = "Your sign matches the template well throughout the entire motion."
	MessageNoScore = "Unable to identify specific areas for improvement."
)

// Comparison is the result of aligning an attempt with a template.
type Comparison struct {
	// Score is the overall similarity, 0 to 100.
	Score float64
	// FrameScores holds one 0 to 100 score per step of Path.
	FrameScores []float64
	Path        []Step
}

// Compare scores an attempt against a template recording. Each recording is
// a list of frames, each frame the hands detected in it. If either recording
// is empty the score is zero.
func Compare(template, attempt [][]detector.Hand) Comparison {
	a, b := Sequence(template), Sequence(attempt)
	if len(a) == 0 || len(b) == 0 {
		return Comparison{}
	}

	total, path := Warp(a, b)

	scores := make([]float64, len(path))
	for k, s := range path {
		scores[k] = toScore(euclidean(a[s.Template], b[s.Attempt]))
	}

	return Comparison{
		Score:       toScore(total / float64(len(path))),
		FrameScores: scores,
		Path:        path,
	}
}

func toScore(dist float64) float64 {
	return math.Max(0, 100-dist*pointsPerUnit)
}

// Rating names a score band.
func Rating(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Very Good"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Fair"
	default:
		return "Needs Practice"
	}
}

// Segment is a run of path steps whose average score is below par.
type Segment struct {
	Start    int     `json:"start"`
	End      int     `json:"end"`
	AvgScore float64 `json:"avg_score"`
}

// Feedback summarizes a Comparison for the learner.
type Feedback struct {
	OverallScore float64   `json:"overall_score"`
	Rating       string    `json:"rating"`
	WeakSegments []Segment `json:"weak_segments"`
	Messages     []string  `json:"messages"`
}

// Feedback rates the comparison and points out weak segments.
func (c Comparison) Feedback() Feedback {
	weak := WeakSegments(c.FrameScores)

	var messages []string
	switch {
	case len(c.FrameScores) == 0:
		messages = []string{MessageNoScore}
	case len(weak) == 0:
		messages = []string{MessageGood}
	default:
		for _, s := range weak {
			messages = append(messages, fmt.Sprintf("Segment %d to %d needs improvement (score: %.1f)", s.Start, s.End, s.AvgScore))
		}
	}

	if weak == nil {
		weak = []Segment{}
	}
	return Feedback{
		OverallScore: c.Score,
		Rating:       Rating(c.Score),
		WeakSegments: weak,
		Messages:     messages,
	}
}

// WeakSegments splits scores wherever consecutive values jump by more than
// 15 points, and returns the pieces averaging under 70. A piece ends at the
// step that jumped.
func WeakSegments(scores []float64) []Segment {
	var weak []Segment
	start := 0
	var sum float64

	for i, s := range scores {
		sum += s
		last := i == len(scores)-1
		jumped := i > 0 && math.Abs(s-scores[i-1]) > segmentJump
		if !last && !jumped {
			continue
		}

		if avg := sum / float64(i-start+1); avg < weakScore {
			weak = append(weak, Segment{Start: start, End: i, AvgScore: avg})
		}
		start = i + 1
		sum = 0
	}
	return weak
}
