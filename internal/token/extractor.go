// Package token extracts DWINGS identifiers out of free-text statement
// fields (labels, reconciliation numbers, payment references).
package token

import (
	"regexp"
	"strings"
)

var (
	// BGPMT payment reference: literal prefix followed by at least 6
	// alphanumeric characters (e.g. BGPMT2401A7X9).
	bgpmtPattern = regexp.MustCompile(`\bBGPMT[0-9A-Z]{6,}\b`)

	// BGI invoice identifier (e.g. BGI2024010042).
	bgiPattern = regexp.MustCompile(`\bBGI[0-9A-Z]{8,}\b`)

	// Guarantee id: G + at least 10 digits (e.g. G00012345678).
	guaranteePattern = regexp.MustCompile(`\bG\d{10,}\b`)

	// Legacy guarantee official reference form: OG/CG/GUA + digits.
	guaranteeLegacyPattern = regexp.MustCompile(`\b(?:OG|CG|GUA)\d{6,}\b`)
)

// ExtractBGPMT returns the first BGPMT payment reference found in text, or
// the empty string. Safe on empty input.
func ExtractBGPMT(text string) string {
	if text == "" {
		return ""
	}
	return bgpmtPattern.FindString(strings.ToUpper(text))
}

// ExtractBGI returns the first BGI invoice identifier found in text, or the
// empty string.
func ExtractBGI(text string) string {
	if text == "" {
		return ""
	}
	return bgiPattern.FindString(strings.ToUpper(text))
}

// ExtractGuaranteeID returns the first guarantee identifier found in text,
// trying the current G-prefixed form before the legacy official-reference
// form. Returns the empty string when neither is present.
func ExtractGuaranteeID(text string) string {
	if text == "" {
		return ""
	}
	up := strings.ToUpper(text)
	if m := guaranteePattern.FindString(up); m != "" {
		return m
	}
	return guaranteeLegacyPattern.FindString(up)
}

// FirstToken runs extract over each candidate text in order and returns the
// first non-empty hit. Call sites pass label, reconciliation numbers,
// payment reference and cross-system ref in that order.
func FirstToken(extract func(string) string, texts ...string) string {
	for _, t := range texts {
		if v := extract(t); v != "" {
			return v
		}
	}
	return ""
}
