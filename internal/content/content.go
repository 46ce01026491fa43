// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package content

import (
	"log/slog"
	"strings"

	"phishscore/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const NoTitle = "No Title"

// ExtractTitleAndForms parses markup and returns the first <title> text and
// every <form> in document order. Markup that cannot be parsed yields NoTitle
// and no forms.
func ExtractTitleAndForms(markup string) (string, []models.Form) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		slog.Warn("Markup parse failed", "error", err)
		return NoTitle, nil
	}

	title := NoTitle
	if sel := doc.Find("title").First(); sel.Length() > 0 {
		title = strings.TrimSpace(sel.Text())
	}

	var forms []models.Form
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		forms = append(forms, describeForm(s))
	})

	return title, forms
}

func describeForm(s *goquery.Selection) models.Form {
	action, hasAction := s.Attr("action")
	method, _ := s.Attr("method")
	return models.Form{
		Action:      action,
		HasAction:   hasAction,
		Method:      strings.ToUpper(strings.TrimSpace(method)),
		Inputs:      s.Find("input, textarea, select").Length(),
		HasPassword: s.Find("input").FilterFunction(isPasswordInput).Length() > 0,
	}
}

func isPasswordInput(_ int, s *goquery.Selection) bool {
	typ, _ := s.Attr("type")
	return strings.EqualFold(strings.TrimSpace(typ), "password")
}

// HasExternalFormTarget reports whether any form posts to an action that does
// not mention ownDomain. Forms without an action submit to the page itself.
// Hosts compare case-insensitively; a whitespace-only action is present and
// therefore external.
func HasExternalFormTarget(forms []models.Form, ownDomain string) bool {
	ownDomain = strings.ToLower(ownDomain)
	for _, f := range forms {
		if !f.HasAction || f.Action == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(f.Action), ownDomain) {
			return true
		}
	}
	return false
}
