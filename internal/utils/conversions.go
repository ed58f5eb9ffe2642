package utils

// ToStringSlice keeps the string elements of a decoded JSON array.
func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// StringSliceFromClaim converts a decoded claim (nil, []any or []string) into a string slice.
func StringSliceFromClaim(claim any) []string {
	switch v := claim.(type) {
	case []any:
		return ToStringSlice(v)
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return []string{}
	}
}
