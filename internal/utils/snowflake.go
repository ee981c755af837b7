package utils

// IsSnowflake reports whether value is a plausible platform identifier: a
// non-empty run of at most 20 ASCII digits.
func IsSnowflake(value string) bool {
	if value == "" || len(value) > 20 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
