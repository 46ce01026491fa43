// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package models

import "time"

// SignalRecord is the complete set of observations for one analyzed URL.
// Only RegistrationAgeMonths may be absent; every other field defaults to its
// zero value when it could not be determined.
type SignalRecord struct {
	RegistrationAgeMonths  *int `json:"domain_age_months"`
	IsShortenedLink        bool `json:"is_shortened_url"`
	TitleHasSuspiciousWord bool `json:"suspicious_title"`
	BodyHasSuspiciousWord  bool `json:"suspicious_body"`
	FormCount              int  `json:"forms_found"`
	ContainsAtSymbol       bool `json:"contains_at_symbol"`
	DotCount               int  `json:"dots_count"`
	IsLongURL              bool `json:"url_length_long"`
	UsesSecureScheme       bool `json:"uses_https"`
	HasExternalFormTarget  bool `json:"form_action_external"`
	DomainIsLiteralIP      bool `json:"url_contains_ip"`
}

// AgeKnown reports whether a registration age was resolved.
func (r SignalRecord) AgeKnown() bool {
	return r.RegistrationAgeMonths != nil
}

// Form describes one <form> element found on a page.
type Form struct {
	Action      string `json:"action,omitempty"`
	HasAction   bool   `json:"has_action"`
	Method      string `json:"method,omitempty"`
	Inputs      int    `json:"inputs"`
	HasPassword bool   `json:"has_password"`
}

// Contribution is one fired scoring rule.
type Contribution struct {
	Signal string `json:"signal"`
	Weight int    `json:"weight"`
}

// Analysis is the finished result of scoring one URL. KnownPhishing is nil
// when no feed was consulted; it is informational and not part of Score.
type Analysis struct {
	URL           string         `json:"url"`
	Domain        string         `json:"domain"`
	Title         string         `json:"title,omitempty"`
	Forms         []Form         `json:"forms,omitempty"`
	Record        SignalRecord   `json:"signals"`
	Score         int            `json:"score"`
	Verdict       string         `json:"verdict"`
	Breakdown     []Contribution `json:"breakdown"`
	TitleTerms    []string       `json:"title_terms,omitempty"`
	BodyTerms     []string       `json:"body_terms,omitempty"`
	KnownPhishing *bool          `json:"known_phishing,omitempty"`
	Partial       bool           `json:"partial"`
	Missing       []string       `json:"missing,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"duration_ns"`
}

const (
	MissingContent         = "content"
	MissingRegistrationAge = "registration_age"
)
