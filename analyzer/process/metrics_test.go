package process

import "testing"

func TestExtractMetricsCurrency(t *testing.T) {
	cases := []struct {
		text string
		want []float64
	}{
		{"Revenue was $1,234.56 for the quarter", []float64{1234.56}},
		{"We spent $5 million on research", []float64{5e6}},
		{"Assets of $2.25 billion and debt of $1 trillion", []float64{2.25e9, 1e12}},
		{"Net sales of $2.5 billion", []float64{2.5e9}},
		{"Backlog reached $1.125 billion", []float64{1.125e9}},
		{"No figures here", nil},
		{"Costs were $ 750 thousand", []float64{750}}, // "thousand" is not a known magnitude
	}

	for _, tc := range cases {
		got := ExtractMetrics(tc.text)
		if len(got.CurrencyAmounts) != len(tc.want) {
			t.Errorf("ExtractMetrics(%q).CurrencyAmounts = %v, want %v", tc.text, got.CurrencyAmounts, tc.want)
			continue
		}
		for i := range tc.want {
			if got.CurrencyAmounts[i] != tc.want[i] {
				t.Errorf("ExtractMetrics(%q).CurrencyAmounts[%d] = %v, want %v", tc.text, i, got.CurrencyAmounts[i], tc.want[i])
			}
		}
	}
}

func TestExtractMetricsPercentages(t *testing.T) {
	got := ExtractMetrics("Margin grew 12.5% while churn fell 3 %")
	if len(got.Percentages) != 2 {
		t.Fatalf("Percentages = %v, want two values", got.Percentages)
	}
	if got.Percentages[0] != 12.5 || got.Percentages[1] != 3 {
		t.Errorf("Percentages = %v, want [12.5 3]", got.Percentages)
	}
}

func TestExtractMetricsMixed(t *testing.T) {
	got := ExtractMetrics("Revenue of $91.8 billion, up 8% year over year")
	if len(got.CurrencyAmounts) != 1 || got.CurrencyAmounts[0] != 91.8e9 {
		t.Errorf("CurrencyAmounts = %v, want [9.18e10]", got.CurrencyAmounts)
	}
	if len(got.Percentages) != 1 || got.Percentages[0] != 8 {
		t.Errorf("Percentages = %v, want [8]", got.Percentages)
	}
	if got.Empty() {
		t.Error("metrics should not be empty")
	}
}
