package utils

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Ellipsize shortens s to n runes followed by "..." when it is longer than n.
func Ellipsize(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return Truncate(s, n) + "..."
}
