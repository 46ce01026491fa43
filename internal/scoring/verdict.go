package scoring

import "fmt"

type Verdict string

const (
	VerdictSafe       Verdict = "safe"
	VerdictSuspicious Verdict = "suspicious"
	VerdictPhishing   Verdict = "phishing"
)

func Classify(score int) Verdict {
	switch {
	case score >= PhishingThreshold:
		return VerdictPhishing
	case score >= SuspiciousThreshold:
		return VerdictSuspicious
	default:
		return VerdictSafe
	}
}

func (v Verdict) String() string {
	return string(v)
}

// Message is the operator-facing explanation for a verdict.
func (v Verdict) Message() string {
	switch v {
	case VerdictPhishing:
		return "PHISHING: this site is highly suspicious!"
	case VerdictSuspicious:
		return "SUSPICIOUS: be cautious, some red flags found."
	default:
		return "SAFE: no major phishing indicators found."
	}
}

// FormatScore renders a score the way operators see it, e.g. "85 / 100".
// Scores above DisplayScale are shown unchanged.
func FormatScore(score int) string {
	return fmt.Sprintf("%d / %d", score, DisplayScale)
}
