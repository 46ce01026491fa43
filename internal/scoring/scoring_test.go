// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package scoring

import (
	"strings"
	"testing"

	"phishscore/internal/models"
)

func intPtr(v int) *int { return &v }

// baseline triggers no rule: https, no age, nothing else set.
func baseline() models.SignalRecord {
	return models.SignalRecord{UsesSecureScheme: true}
}

func TestComputeScore_Baseline(t *testing.T) {
	if got := ComputeScore(baseline()); got != 0 {
		t.Errorf("baseline score = %d, want 0", got)
	}
}

func TestComputeScore_SingleSignalWeights(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.SignalRecord)
		want   int
	}{
		{"young domain", func(r *models.SignalRecord) { r.RegistrationAgeMonths = intPtr(5) }, 30},
		{"age zero", func(r *models.SignalRecord) { r.RegistrationAgeMonths = intPtr(0) }, 30},
		{"age six is not young", func(r *models.SignalRecord) { r.RegistrationAgeMonths = intPtr(6) }, 0},
		{"shortened", func(r *models.SignalRecord) { r.IsShortenedLink = true }, 15},
		{"title", func(r *models.SignalRecord) { r.TitleHasSuspiciousWord = true }, 20},
		{"body", func(r *models.SignalRecord) { r.BodyHasSuspiciousWord = true }, 20},
		{"forms", func(r *models.SignalRecord) { r.FormCount = 1 }, 15},
		{"at", func(r *models.SignalRecord) { r.ContainsAtSymbol = true }, 10},
		{"three dots", func(r *models.SignalRecord) { r.DotCount = 3 }, 0},
		{"four dots", func(r *models.SignalRecord) { r.DotCount = 4 }, 10},
		{"long", func(r *models.SignalRecord) { r.IsLongURL = true }, 10},
		{"insecure", func(r *models.SignalRecord) { r.UsesSecureScheme = false }, 15},
		{"external form", func(r *models.SignalRecord) { r.HasExternalFormTarget = true }, 20},
		{"literal ip", func(r *models.SignalRecord) { r.DomainIsLiteralIP = true }, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseline()
			tt.mutate(&r)
			if got := ComputeScore(r); got != tt.want {
				t.Errorf("ComputeScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeScore_AllFalseRecord(t *testing.T) {
	// The literal all-false record is plain http, so only the scheme rule fires.
	if got := ComputeScore(models.SignalRecord{}); got != WeightInsecureScheme {
		t.Errorf("zero record score = %d, want %d", got, WeightInsecureScheme)
	}
	r := models.SignalRecord{DomainIsLiteralIP: true}
	if got := ComputeScore(r) - ComputeScore(models.SignalRecord{}); got != 20 {
		t.Errorf("literal IP delta = %d, want 20", got)
	}
}

func TestComputeScore_ScenarioA(t *testing.T) {
	r := models.SignalRecord{
		RegistrationAgeMonths: intPtr(3),
		DotCount:              2,
		UsesSecureScheme:      true,
	}
	score := ComputeScore(r)
	if score != 30 {
		t.Fatalf("scenario A score = %d, want 30", score)
	}
	if v := Classify(score); v != VerdictSafe {
		t.Errorf("scenario A verdict = %s, want safe", v)
	}
}

func TestComputeScore_ScenarioB(t *testing.T) {
	r := models.SignalRecord{
		IsShortenedLink:        true,
		TitleHasSuspiciousWord: true,
		BodyHasSuspiciousWord:  true,
		FormCount:              2,
		ContainsAtSymbol:       true,
		DotCount:               5,
		IsLongURL:              true,
		UsesSecureScheme:       false,
		HasExternalFormTarget:  true,
		DomainIsLiteralIP:      true,
	}
	score := ComputeScore(r)
	if score != 155 {
		t.Fatalf("scenario B score = %d, want 155", score)
	}
	if v := Classify(score); v != VerdictPhishing {
		t.Errorf("scenario B verdict = %s, want phishing", v)
	}
}

func TestComputeScore_MaxIsUnclamped(t *testing.T) {
	r := models.SignalRecord{
		RegistrationAgeMonths:  intPtr(1),
		IsShortenedLink:        true,
		TitleHasSuspiciousWord: true,
		BodyHasSuspiciousWord:  true,
		FormCount:              1,
		ContainsAtSymbol:       true,
		DotCount:               9,
		IsLongURL:              true,
		HasExternalFormTarget:  true,
		DomainIsLiteralIP:      true,
	}
	if got := ComputeScore(r); got != MaxScore {
		t.Errorf("all signals score = %d, want %d", got, MaxScore)
	}
}

func TestComputeScore_Idempotent(t *testing.T) {
	r := models.SignalRecord{RegistrationAgeMonths: intPtr(2), FormCount: 3, IsLongURL: true}
	first := ComputeScore(r)
	second := ComputeScore(r)
	if first != second {
		t.Errorf("ComputeScore not idempotent: %d then %d", first, second)
	}
	if *r.RegistrationAgeMonths != 2 {
		t.Error("ComputeScore mutated the record")
	}
}

func TestBreakdown_SumsToScore(t *testing.T) {
	r := models.SignalRecord{
		RegistrationAgeMonths: intPtr(4),
		FormCount:             1,
		ContainsAtSymbol:      true,
	}
	total := 0
	for _, c := range Breakdown(r) {
		total += c.Weight
	}
	if total != ComputeScore(r) {
		t.Errorf("breakdown total = %d, score = %d", total, ComputeScore(r))
	}
	if len(Breakdown(baseline())) != 0 {
		t.Error("baseline should have an empty breakdown")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score int
		want  Verdict
	}{
		{0, VerdictSafe},
		{39, VerdictSafe},
		{40, VerdictSuspicious},
		{69, VerdictSuspicious},
		{70, VerdictPhishing},
		{185, VerdictPhishing},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0 / 100"},
		{85, "85 / 100"},
		{155, "155 / 100"},
	}
	for _, tt := range tests {
		if got := FormatScore(tt.score); got != tt.want {
			t.Errorf("FormatScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestVerdictMessage(t *testing.T) {
	for _, v := range []Verdict{VerdictSafe, VerdictSuspicious, VerdictPhishing} {
		msg := v.Message()
		if !strings.HasPrefix(strings.ToLower(msg), v.String()) {
			t.Errorf("%s.Message() = %q, want it to start with the verdict", v, msg)
		}
	}
}
