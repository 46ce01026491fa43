// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package urlcheck

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"unicode/utf8"
)

const LongURLThreshold = 75

var (
	ErrMalformedURL = errors.New("malformed URL")
	ErrEmptyInput   = errors.New("empty URL input")
)

var DefaultShorteners = []string{"bit.ly", "tinyurl.com", "goo.gl", "t.co"}

// Checker carries the static configuration used by the structural checks.
// The zero value has no shortener list.
type Checker struct {
	shorteners map[string]bool
}

func New(shorteners []string) *Checker {
	set := make(map[string]bool, len(shorteners))
	for _, s := range shorteners {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = true
		}
	}
	return &Checker{shorteners: set}
}

func (c *Checker) IsShortenedLink(rawURL string) bool {
	if c == nil || len(c.shorteners) == 0 {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return c.shorteners[strings.ToLower(parsed.Hostname())]
}

// Normalize trims operator input and prepends http:// when no scheme is given.
func Normalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}
	lower := strings.ToLower(input)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		input = "http://" + input
	}
	return input, nil
}

// ExtractDomain returns the lower-cased host without port, with one leading
// "www." removed.
func ExtractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", ErrMalformedURL
	}
	return strings.TrimPrefix(host, "www."), nil
}

func ContainsAtSymbol(rawURL string) bool {
	return strings.Contains(rawURL, "@")
}

// DotCount counts dots in host[:port]; userinfo, path and query are excluded.
func DotCount(rawURL string) int {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	return strings.Count(parsed.Host, ".")
}

func IsLongURL(rawURL string) bool {
	return utf8.RuneCountInString(rawURL) > LongURLThreshold
}

func UsesSecureScheme(rawURL string) bool {
	return strings.HasPrefix(strings.ToLower(rawURL), "https://")
}

// DomainIsLiteralIP reports whether the host, with any port and IPv6 brackets
// removed, is an IPv4 or IPv6 literal.
func DomainIsLiteralIP(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if host == "" {
		return false
	}
	_, err = netip.ParseAddr(host)
	return err == nil
}
