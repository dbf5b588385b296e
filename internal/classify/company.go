package classify

import "strings"

// Company normalizes an insurer name for scope comparison: upper-cased,
// generic "GENERAL"/"INSURANCE" tokens dropped, whitespace collapsed.
// "Reliance General Insurance" and "RELIANCE" normalize identically.
func Company(name string) string {
	n := strings.ToUpper(name)
	n = strings.ReplaceAll(n, "GENERAL", "")
	n = strings.ReplaceAll(n, "INSURANCE", "")
	return strings.Join(strings.Fields(n), " ")
}
