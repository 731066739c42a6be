package adapters

import "regexp"

// Diagnostics recognizes error and warning lines common to most tools.
func Diagnostics() *Adapter {
	return &Adapter{
		name: "diagnostics",
		patterns: []pattern{
			{re: regexp.MustCompile(`(?i)(?:^|[\[\]\s])(?:Error|ERROR):\s*(.+)`), build: errorMessage},
			{re: regexp.MustCompile(`(?:^|\s)Exception:\s*(.+)`), build: errorMessage},
			{re: regexp.MustCompile(`^Traceback \(most recent call last\):`), build: fixedError("Python traceback detected")},
			{re: regexp.MustCompile(`(?i)(?:^|[\[\]\s])Warning:\s*(.+)`), build: warningMessage},
			{re: regexp.MustCompile(`DeprecationWarning:\s*(.+)`), build: warningMessage},
		},
	}
}
