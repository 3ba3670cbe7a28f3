package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFilter_Accepts(t *testing.T) {
	f := NewNameFilter(DefaultExtensions)

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "xls", input: "report.xls", expected: true},
		{name: "xlsx", input: "report.xlsx", expected: true},
		{name: "csv", input: "daily.csv", expected: true},
		{name: "zip", input: "bundle.zip", expected: true},
		{name: "tsv", input: "table.tsv", expected: true},
		{name: "empty", input: "", expected: false},
		{name: "no_extension", input: "report", expected: false},
		{name: "temp_suffix", input: "report.xlsx.tmp", expected: false},
		{name: "lock_file", input: ".~lock.report.csv#", expected: false},
		{name: "case_sensitive", input: "REPORT.CSV", expected: false},
		{name: "suffix_without_dot", input: "reportcsv", expected: false},
		{name: "bare_suffix", input: ".csv", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Accepts(tt.input))
		})
	}
}

func TestNameFilter_IgnoresEmptySuffix(t *testing.T) {
	f := NewNameFilter([]string{"", ".pdf"})

	assert.Equal(t, []string{".pdf"}, f.Suffixes())
	assert.False(t, f.Accepts("anything"))
	assert.True(t, f.Accepts("a.pdf"))
}

func TestNameFilter_NoSuffixes(t *testing.T) {
	f := NewNameFilter(nil)
	assert.False(t, f.Accepts("report.csv"))
}
