package process

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

var (
	currencyRe = regexp.MustCompile(`\$\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(million|billion|trillion)?`)
	percentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

var magnitudes = map[string]float64{
	"million":  1e6,
	"billion":  1e9,
	"trillion": 1e12,
}

// ExtractMetrics pulls currency amounts and percentages out of a chunk of
// filing text. Scale words directly following an amount ("$1.2 billion")
// multiply it into absolute dollars.
func ExtractMetrics(text string) filing.Metrics {
	var m filing.Metrics

	for _, match := range currencyRe.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(match[1], ",", "")
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if mult, ok := magnitudes[match[2]]; ok {
			amount *= mult
		}
		m.CurrencyAmounts = append(m.CurrencyAmounts, amount)
	}

	for _, match := range percentRe.FindAllStringSubmatch(text, -1) {
		pct, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		m.Percentages = append(m.Percentages, pct)
	}

	return m
}
