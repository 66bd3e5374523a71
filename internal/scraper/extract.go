package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	// amountPattern finds the numeric token in a mixed price blob; whatever
	// non-digit text surrounds it is the currency candidate.
	amountPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

	// ratingWithCountPattern matches the combined "4,8 (123 ...)" form.
	ratingWithCountPattern = regexp.MustCompile(`([\d.,]+)\s*\((\d+)`)
	// countPattern matches a bare opinion/review count.
	countPattern = regexp.MustCompile(`(\d+)\s*(?:opini|review|ocen)`)
	// bareRatingPattern matches a lone decimal rating like "4.8".
	bareRatingPattern = regexp.MustCompile(`\d+[.,]\d+`)
)

// ExtractPrice separates the currency token from the numeric token in one
// text blob where the two are interleaved in unpredictable order. The amount
// is normalized to a dot decimal separator. Malformed input degrades to a
// zero amount and an empty currency rather than an error.
func ExtractPrice(text string) (amount, currency string) {
	text = strings.TrimSpace(text)
	loc := amountPattern.FindStringIndex(text)
	if loc == nil {
		return ZeroPrice, ""
	}

	amount = strings.Replace(text[loc[0]:loc[1]], ",", ".", 1)

	currency = cleanCurrencyToken(text[:loc[0]])
	if currency == "" {
		currency = cleanCurrencyToken(text[loc[1]:])
	}
	return amount, currency
}

func cleanCurrencyToken(token string) string {
	token = strings.TrimFunc(token, func(r rune) bool {
		switch r {
		case ' ', ' ', '\t', '\n', ',', '.', '-', ':':
			return true
		}
		return false
	})
	return token
}

// ExtractID derives a stable identifier for a listing. The numeric ID from
// the canonical URL wins; without one, a truncated sha256 of the URL; with
// no URL at all, a hash of the raw fragment text. Only a listing with
// neither URL nor fragment is unidentifiable.
func ExtractID(rawURL string, idPattern *regexp.Regexp, fragment string) (string, bool) {
	if rawURL != "" && idPattern != nil {
		if match := idPattern.FindStringSubmatch(rawURL); match != nil {
			return match[1], true
		}
	}
	if rawURL != "" {
		return HashID(rawURL), true
	}
	if fragment != "" {
		return HashID(fragment), true
	}
	return "", false
}

// HashID returns a deterministic short identifier for arbitrary input.
// sha256 keeps the collision probability negligible for the set sizes a
// dedup store ever sees.
func HashID(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

// ParseRating extracts a decimal rating and an opinion count from free text,
// trying the combined "rating (count)" form, then a separate count plus
// rating, then a bare decimal.
func ParseRating(text string) (rating string, count int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0, false
	}

	if match := ratingWithCountPattern.FindStringSubmatch(text); match != nil {
		rating = strings.Replace(match[1], ",", ".", 1)
		count, _ = strconv.Atoi(match[2])
		return rating, count, true
	}

	if match := countPattern.FindStringSubmatch(text); match != nil {
		count, _ = strconv.Atoi(match[1])
		if m := bareRatingPattern.FindString(text); m != "" {
			return strings.Replace(m, ",", ".", 1), count, true
		}
		return "", count, true
	}

	if m := bareRatingPattern.FindString(text); m != "" {
		return strings.Replace(m, ",", ".", 1), 0, true
	}

	return "", 0, false
}

// EstimateFeedback splits an opinion count into positive/negative/neutral
// buckets from an aggregate rating: rating/5 of the count is positive and
// the remainder splits 70/30 between negative and neutral. This is an
// approximation carried over from observed marketplace behavior, not ground
// truth; prefer a real breakdown whenever one is extractable.
func EstimateFeedback(rating string, count int) (positive, negative, neutral int) {
	if count <= 0 {
		return 0, 0, 0
	}

	value, err := strconv.ParseFloat(rating, 64)
	if err != nil || value <= 0 {
		return count, 0, 0
	}

	positiveRatio := value / 5.0
	if positiveRatio > 1.0 {
		positiveRatio = 1.0
	}

	positive = int(math.Round(float64(count) * positiveRatio))
	if positive > count {
		positive = count
	}
	negative = (count - positive) * 7 / 10
	neutral = count - positive - negative
	return positive, negative, neutral
}

// ResolveURL resolves href against the marketplace base URL; absolute URLs
// pass through unchanged.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
