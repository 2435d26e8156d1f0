// Package sentiment scores financial news headlines and serves them to the
// dashboard. Scoring is lexicon-based: a curated list of finance-flavored
// polarity words with simple negation handling, averaged over headlines.
package sentiment

import (
	"strings"
)

// Label classifies a score against the configured thresholds.
type Label string

const (
	Bullish Label = "Bullish"
	Bearish Label = "Bearish"
	Neutral Label = "Neutral"
)

// Classify maps a score in [-1, 1] onto a label. The thresholds come from
// configuration; this package declares no defaults of its own.
func Classify(score, bullish, bearish float64) Label {
	switch {
	case score > bullish:
		return Bullish
	case score < bearish:
		return Bearish
	}
	return Neutral
}

// Analyzer scores text polarity in [-1, 1] from word lists.
type Analyzer struct {
	positive map[string]struct{}
	negative map[string]struct{}
	negators map[string]struct{}
}

// NewAnalyzer returns an Analyzer loaded with the built-in finance lexicon.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		positive: toSet(positiveWords),
		negative: toSet(negativeWords),
		negators: toSet(negatorWords),
	}
}

// Score returns the polarity of one text in [-1, 1]. A negator directly
// before a polarity word flips its sign. Text with no polarity words scores
// 0.
func (a *Analyzer) Score(text string) float64 {
	tokens := tokenize(text)

	var pos, neg float64
	negated := false
	for _, tok := range tokens {
		if _, ok := a.negators[tok]; ok {
			negated = true
			continue
		}

		_, isPos := a.positive[tok]
		_, isNeg := a.negative[tok]
		if negated {
			isPos, isNeg = isNeg, isPos
		}
		switch {
		case isPos:
			pos++
		case isNeg:
			neg++
		}
		negated = false
	}

	total := pos + neg
	if total == 0 {
		return 0
	}
	return (pos - neg) / total
}

// ScoreAll averages Score over the given texts. An empty slice scores 0.
func (a *Analyzer) ScoreAll(texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}
	var sum float64
	for _, t := range texts {
		sum += a.Score(t)
	}
	return sum / float64(len(texts))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var positiveWords = []string{
	"gain", "gains", "gained", "rally", "rallies", "rallied", "surge",
	"surges", "surged", "soar", "soars", "soared", "jump", "jumps", "jumped",
	"climb", "climbs", "climbed", "rise", "rises", "rose", "rising", "record",
	"upgrade", "upgraded", "beat", "beats", "strong", "stronger", "growth",
	"profit", "profits", "profitable", "bullish", "boom", "rebound",
	"rebounds", "rebounded", "recovery", "recover", "recovers", "optimism",
	"optimistic", "outperform", "outperforms", "positive", "upbeat", "high",
	"highs", "win", "wins", "winning", "success", "successful", "expand",
	"expands", "expansion", "improve", "improves", "improved", "buy",
}

var negativeWords = []string{
	"loss", "losses", "lost", "fall", "falls", "fell", "falling", "drop",
	"drops", "dropped", "plunge", "plunges", "plunged", "crash", "crashes",
	"crashed", "tumble", "tumbles", "tumbled", "slump", "slumps", "slumped",
	"slide", "slides", "slid", "sink", "sinks", "sank", "decline", "declines",
	"declined", "downgrade", "downgraded", "miss", "misses", "missed", "weak",
	"weaker", "bearish", "recession", "crisis", "fear", "fears", "panic",
	"selloff", "default", "bankruptcy", "bankrupt", "layoff", "layoffs",
	"cuts", "warn", "warns", "warning", "risk", "risks", "risky", "negative",
	"pessimistic", "underperform", "underperforms", "low", "lows", "sell",
	"fraud", "probe", "lawsuit", "tariff", "tariffs", "inflation",
}

var negatorWords = []string{
	"not", "no", "never", "without", "cannot", "cant", "dont", "doesnt",
	"didnt", "wont", "isnt", "arent", "wasnt", "werent",
}
