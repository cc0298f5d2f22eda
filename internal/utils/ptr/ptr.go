// Package ptr converts between the nullable text columns of the
// inventory database and plain strings.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// NonEmpty returns nil for "" so that empty values are stored as NULL.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to value, or the zero value for nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
