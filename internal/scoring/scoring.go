// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package scoring

import "phishscore/internal/models"

const (
	WeightYoungDomain        = 30
	WeightShortenedLink      = 15
	WeightSuspiciousTitle    = 20
	WeightSuspiciousBody     = 20
	WeightHasForms           = 15
	WeightAtSymbol           = 10
	WeightManyDots           = 10
	WeightLongURL            = 10
	WeightInsecureScheme     = 15
	WeightExternalFormTarget = 20
	WeightLiteralIP          = 20

	YoungDomainMonths = 6
	ManyDotsThreshold = 3

	// MaxScore is the sum of every weight. Scores are not clamped.
	MaxScore = 185

	// DisplayScale is the denominator operators see next to a score; it is a
	// label only.
	DisplayScale = 100

	PhishingThreshold   = 70
	SuspiciousThreshold = 40
)

type rule struct {
	signal string
	weight int
	fires  func(models.SignalRecord) bool
}

var rules = []rule{
	{"young_domain", WeightYoungDomain, func(r models.SignalRecord) bool {
		return r.RegistrationAgeMonths != nil && *r.RegistrationAgeMonths < YoungDomainMonths
	}},
	{"shortened_link", WeightShortenedLink, func(r models.SignalRecord) bool { return r.IsShortenedLink }},
	{"suspicious_title", WeightSuspiciousTitle, func(r models.SignalRecord) bool { return r.TitleHasSuspiciousWord }},
	{"suspicious_body", WeightSuspiciousBody, func(r models.SignalRecord) bool { return r.BodyHasSuspiciousWord }},
	{"has_forms", WeightHasForms, func(r models.SignalRecord) bool { return r.FormCount > 0 }},
	{"at_symbol", WeightAtSymbol, func(r models.SignalRecord) bool { return r.ContainsAtSymbol }},
	{"many_dots", WeightManyDots, func(r models.SignalRecord) bool { return r.DotCount > ManyDotsThreshold }},
	{"long_url", WeightLongURL, func(r models.SignalRecord) bool { return r.IsLongURL }},
	{"insecure_scheme", WeightInsecureScheme, func(r models.SignalRecord) bool { return !r.UsesSecureScheme }},
	{"external_form_target", WeightExternalFormTarget, func(r models.SignalRecord) bool { return r.HasExternalFormTarget }},
	{"literal_ip", WeightLiteralIP, func(r models.SignalRecord) bool { return r.DomainIsLiteralIP }},
}

// ComputeScore sums the weights of every rule the record triggers.
func ComputeScore(record models.SignalRecord) int {
	score := 0
	for _, r := range rules {
		if r.fires(record) {
			score += r.weight
		}
	}
	return score
}

// Breakdown lists the fired rules in a fixed order; the weights sum to
// ComputeScore(record).
func Breakdown(record models.SignalRecord) []models.Contribution {
	out := make([]models.Contribution, 0, len(rules))
	for _, r := range rules {
		if r.fires(record) {
			out = append(out, models.Contribution{Signal: r.signal, Weight: r.weight})
		}
	}
	return out
}
