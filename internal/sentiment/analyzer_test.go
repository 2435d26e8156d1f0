package sentiment

import (
	"math"
	"testing"
)

func TestAnalyzerScore(t *testing.T) {
	a := NewAnalyzer()

	cases := []struct {
		text string
		want float64
	}{
		{"Stocks rally as tech shares surge to record highs", 1},
		{"Markets plunge on recession fears, banks slump", -1},
		{"Fed leaves rates unchanged at policy meeting", 0},
		// gain(+), tariff(-), risk(-)
		{"Shares gain despite tariff risk", -1.0 / 3.0},
		{"", 0},
	}

	for _, c := range cases {
		got := a.Score(c.text)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Score(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestAnalyzerNegation(t *testing.T) {
	a := NewAnalyzer()

	if got := a.Score("earnings did not miss expectations"); got != 1 {
		t.Errorf("negated negative = %v, want 1", got)
	}
	if got := a.Score("no gain for the index this quarter"); got != -1 {
		t.Errorf("negated positive = %v, want -1", got)
	}
}

func TestAnalyzerScoreBounds(t *testing.T) {
	a := NewAnalyzer()

	texts := []string{
		"rally surge soar jump climb record",
		"crash plunge slump tumble fear panic selloff",
		"gain loss rise fall beat miss",
	}
	for _, text := range texts {
		got := a.Score(text)
		if got < -1 || got > 1 {
			t.Errorf("Score(%q) = %v, outside [-1, 1]", text, got)
		}
	}
}

func TestAnalyzerScoreAll(t *testing.T) {
	a := NewAnalyzer()

	got := a.ScoreAll([]string{
		"Stocks rally to record highs", // 1
		"Markets crash on panic",       // -1
		"Fed meets on Wednesday",       // 0
	})
	if math.Abs(got) > 1e-9 {
		t.Errorf("ScoreAll = %v, want 0", got)
	}

	if got := a.ScoreAll(nil); got != 0 {
		t.Errorf("ScoreAll(nil) = %v, want 0", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		score float64
		want  Label
	}{
		{0.2, Bullish},
		{0.05, Neutral}, // boundary is exclusive
		{0.0, Neutral},
		{-0.3, Neutral},
		{-0.31, Bearish},
	}
	for _, c := range cases {
		if got := Classify(c.score, 0.05, -0.3); got != c.want {
			t.Errorf("Classify(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}
