package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one attempt at extracting a semantic field from a fragment.
// An empty Selector applies the strategy to the fragment itself.
type Strategy struct {
	// Selector locates the element within the fragment.
	Selector string
	// Attr names the attribute to read; empty reads the text content.
	Attr string
	// Pattern, when set, must match the raw value; capture group 1 (or the
	// whole match when there are no groups) becomes the result.
	Pattern *regexp.Regexp
}

// Chain is an ordered fallback chain: strategies are tried in sequence and
// the first non-empty, well-formed result wins.
type Chain []Strategy

// Extract runs the chain against a fragment. The boolean is false when every
// strategy missed; callers treat that as "unknown", never as an error.
func (c Chain) Extract(s *goquery.Selection) (string, bool) {
	for _, strat := range c {
		if value, ok := strat.apply(s); ok {
			return value, true
		}
	}
	return "", false
}

// ExtractAll collects one result per matched element, preserving document
// order. Used for photo sets.
func (c Chain) ExtractAll(s *goquery.Selection) []string {
	for _, strat := range c {
		target := s
		if strat.Selector != "" {
			target = s.Find(strat.Selector)
		}
		if target.Length() == 0 {
			continue
		}

		var values []string
		target.Each(func(_ int, el *goquery.Selection) {
			if value, ok := strat.read(el); ok {
				values = append(values, value)
			}
		})
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

func (s Strategy) apply(sel *goquery.Selection) (string, bool) {
	target := sel
	if s.Selector != "" {
		target = sel.Find(s.Selector).First()
	}
	if target.Length() == 0 {
		return "", false
	}
	return s.read(target)
}

func (s Strategy) read(target *goquery.Selection) (string, bool) {
	var raw string
	if s.Attr != "" {
		value, exists := target.Attr(s.Attr)
		if !exists {
			return "", false
		}
		raw = value
	} else {
		raw = target.Text()
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if s.Pattern != nil {
		match := s.Pattern.FindStringSubmatch(raw)
		if match == nil {
			return "", false
		}
		if len(match) > 1 {
			raw = strings.TrimSpace(match[1])
		} else {
			raw = strings.TrimSpace(match[0])
		}
		if raw == "" {
			return "", false
		}
	}

	return raw, true
}
