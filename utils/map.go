package utils

// Map returns a new slice with the same length as src, but with values
// transformed by f. If src is nil, returns nil.
func Map[T, U any](src []T, f func(T) U) []U {
	if src == nil {
		return nil
	}
	us := make([]U, len(src))
	for i := range src {
		us[i] = f(src[i])
	}
	return us
}

// MapErr is Map for transforms that can fail: the first error stops the
// iteration and is returned.
func MapErr[T, U any](src []T, f func(T) (U, error)) ([]U, error) {
	if src == nil {
		return nil, nil
	}
	us := make([]U, len(src))
	for i := range src {
		var err error
		us[i], err = f(src[i])
		if err != nil {
			return us, err
		}
	}
	return us, nil
}
