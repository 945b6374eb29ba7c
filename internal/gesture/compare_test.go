package gesture

import (
	"testing"

	"github.com/ayusman/handtracker/internal/detector"
)

func recording(hands ...detector.Hand) [][]detector.Hand {
	frames := make([][]detector.Hand, len(hands))
	for i, h := range hands {
		frames[i] = []detector.Hand{h}
	}
	return frames
}

func TestCompare_SameSign(t *testing.T) {
	palm, thumb := detector.OpenPalmHand(), detector.ThumbsUpHand()
	template := recording(palm, thumb)
	// Slower, smaller and in another part of the frame
	attempt := recording(
		transformed(palm, 0.1, 0.1, 0.8),
		transformed(palm, 0.1, 0.1, 0.8),
		transformed(thumb, 0.1, 0.1, 0.8),
	)

	c := Compare(template, attempt)

	if c.Score < 99.9 {
		t.Errorf("Score = %f, want 100", c.Score)
	}
	if len(c.FrameScores) != len(c.Path) || len(c.Path) != 3 {
		t.Errorf("expected one score per step of a 3 step path, got %d scores and %v", len(c.FrameScores), c.Path)
	}
	if fb := c.Feedback(); fb.Rating != "Excellent" || fb.Messages[0] != MessageGood {
		t.Errorf("Feedback() = %+v", fb)
	}
}

func TestCompare_DifferentSign(t *testing.T) {
	palm, thumb := detector.OpenPalmHand(), detector.ThumbsUpHand()

	same := Compare(recording(palm, palm), recording(palm, palm))
	different := Compare(recording(palm, palm), recording(thumb, thumb))

	if different.Score >= same.Score {
		t.Errorf("different sign scored %f, same sign %f", different.Score, same.Score)
	}
	for _, s := range different.FrameScores {
		if s < 0 || s > 100 {
			t.Errorf("frame score %f out of range", s)
		}
	}
}

func TestCompare_EmptyRecording(t *testing.T) {
	palm := detector.OpenPalmHand()

	tests := []struct {
		name              string
		template, attempt [][]detector.Hand
	}{
		{"empty template", nil, recording(palm)},
		{"empty attempt", recording(palm), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compare(tt.template, tt.attempt)
			if c.Score != 0 || len(c.FrameScores) != 0 || len(c.Path) != 0 {
				t.Errorf("Compare() = %+v, want zero", c)
			}

			fb := c.Feedback()
			if fb.Rating != "Needs Practice" {
				t.Errorf("Rating = %q", fb.Rating)
			}
			if len(fb.Messages) != 1 || fb.Messages[0] != MessageNoScore {
				t.Errorf("Messages = %v", fb.Messages)
			}
		})
	}
}

func TestCompare_FramesWithoutHands(t *testing.T) {
	c := Compare([][]detector.Hand{nil, nil}, [][]detector.Hand{nil})
	if c.Score != 100 {
		t.Errorf("Score = %f, want 100 for two empty motions", c.Score)
	}
}

func TestRating(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "Excellent"},
		{90, "Excellent"},
		{89.9, "Very Good"},
		{80, "Very Good"},
		{75, "Good"},
		{60, "Fair"},
		{59.9, "Needs Practice"},
		{0, "Needs Practice"},
	}

	for _, tt := range tests {
		if got := Rating(tt.score); got != tt.want {
			t.Errorf("Rating(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestWeakSegments(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []Segment
	}{
		{"no scores", nil, nil},
		{"all good", []float64{100, 95, 90}, nil},
		{"all weak", []float64{40, 40, 40}, []Segment{{0, 2, 40}}},
		{"weak tail after a drop", []float64{100, 50, 50, 50}, []Segment{{2, 3, 50}}},
		{"weak single frame", []float64{30}, []Segment{{0, 0, 30}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeakSegments(tt.scores)
			if len(got) != len(tt.want) {
				t.Fatalf("WeakSegments() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFeedback_WeakSegmentMessage(t *testing.T) {
	c := Comparison{Score: 45, FrameScores: []float64{40, 50}}

	fb := c.Feedback()

	if fb.Rating != "Needs Practice" {
		t.Errorf("Rating = %q", fb.Rating)
	}
	want := "Segment 0 to 1 needs improvement (score: 45.0)"
	if len(fb.Messages) != 1 || fb.Messages[0] != want {
		t.Errorf("Messages = %v, want [%q]", fb.Messages, want)
	}
	if len(fb.WeakSegments) != 1 {
		t.Errorf("WeakSegments = %v", fb.WeakSegments)
	}
}
