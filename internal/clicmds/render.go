package clicmds

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"phishscore/internal/models"
	"phishscore/internal/scoring"
	"phishscore/internal/urlcheck"
)

const rule = "========================================"

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\n%s\n    PHISHING DETECTION TOOL\n%s\n\n", rule, rule)
}

// printAnalysis writes the operator view of one analysis. Missing signal
// categories are named instead of being shown as negatives.
func printAnalysis(w io.Writer, a *models.Analysis) {
	r := a.Record
	fmt.Fprintf(w, "Domain Name: %s\n", a.Domain)
	if r.RegistrationAgeMonths != nil {
		fmt.Fprintf(w, "Domain Age: %d month(s)\n", *r.RegistrationAgeMonths)
	} else {
		fmt.Fprintln(w, "Domain Age: N/A (registration data unavailable)")
	}
	fmt.Fprintf(w, "Is Shortened Link: %s\n", yesNo(r.IsShortenedLink))

	if slices.Contains(a.Missing, models.MissingContent) {
		fmt.Fprintln(w, "[!] Failed to fetch the page. Title, forms and wording were not checked.")
	} else {
		fmt.Fprintf(w, "Page Title: %s\n", a.Title)
		fmt.Fprintf(w, "Number of Forms: %d\n", r.FormCount)
		if r.TitleHasSuspiciousWord {
			fmt.Fprintf(w, "Suspicious words found in title: %s\n", strings.Join(a.TitleTerms, ", "))
		}
		if r.BodyHasSuspiciousWord {
			fmt.Fprintf(w, "Suspicious content found in body: %s\n", strings.Join(a.BodyTerms, ", "))
		}
	}

	fmt.Fprintln(w, "\nURL Structure Checks:")
	fmt.Fprintf(w, "   - Contains '@' symbol: %s\n", yesNo(r.ContainsAtSymbol))
	fmt.Fprintf(w, "   - Number of '.' in host: %d\n", r.DotCount)
	fmt.Fprintf(w, "   - URL Length > %d chars: %s\n", urlcheck.LongURLThreshold, yesNo(r.IsLongURL))
	fmt.Fprintf(w, "   - Uses HTTPS (Secure): %s\n", yesNo(r.UsesSecureScheme))
	if !slices.Contains(a.Missing, models.MissingContent) {
		fmt.Fprintf(w, "   - Form sends data outside domain: %s\n", yesNo(r.HasExternalFormTarget))
	}
	fmt.Fprintf(w, "   - IP Address used in URL: %s\n", yesNo(r.DomainIsLiteralIP))
	if a.KnownPhishing != nil {
		fmt.Fprintf(w, "   - Listed in OpenPhish feed: %s (not scored)\n", yesNo(*a.KnownPhishing))
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "Phishing Score: %s\n", scoring.FormatScore(a.Score))
	fmt.Fprintf(w, "Result: %s\n", scoring.Verdict(a.Verdict).Message())
	if a.Partial || len(a.Missing) > 0 {
		fmt.Fprintf(w, "Not evaluated: %s\n", strings.Join(a.Missing, ", "))
	}
	fmt.Fprintf(w, "%s\n\n", rule)
}
