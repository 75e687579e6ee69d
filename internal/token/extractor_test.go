package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBGPMT(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"embedded in label", "VIRT SEPA BGPMT2401A7X9 COMMISSION Q1", "BGPMT2401A7X9"},
		{"lowercase input", "ref bgpmt2401a7x9 settled", "BGPMT2401A7X9"},
		{"too short suffix", "BGPMT12 other text", ""},
		{"empty input", "", ""},
		{"no token", "COMMISSION GUARANTEE FEES", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBGPMT(tt.text))
		})
	}
}

func TestExtractBGI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain id", "BGI2024010042", "BGI2024010042"},
		{"inside sentence", "settlement of BGI2024010042 per advice", "BGI2024010042"},
		{"first of two", "BGI2024010042 BGI2024010099", "BGI2024010042"},
		{"prefix only", "BGI pending", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBGI(tt.text))
		})
	}
}

func TestExtractGuaranteeID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"current form", "claim under G00012345678", "G00012345678"},
		{"legacy official ref", "see GUA2301007 for details", "GUA2301007"},
		{"current form preferred", "GUA2301007 G00012345678", "G00012345678"},
		{"too few digits", "G12345", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractGuaranteeID(tt.text))
		})
	}
}

func TestFirstToken(t *testing.T) {
	got := FirstToken(ExtractBGI, "", "no token here", "ref BGI2024010042", "BGI2024010099")
	assert.Equal(t, "BGI2024010042", got)

	assert.Equal(t, "", FirstToken(ExtractBGPMT))
	assert.Equal(t, "", FirstToken(ExtractBGPMT, "", "nothing"))
}
