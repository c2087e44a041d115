package utils

// MaskSecret keeps just enough of a credential to recognize it in a log
// line. Short values are hidden entirely.
func MaskSecret(s string) string {
	if len(s) < 8 {
		return "****"
	}
	return s[:3] + "****" + s[len(s)-2:]
}
