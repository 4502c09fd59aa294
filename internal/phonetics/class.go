package phonetics

// DefaultMaxConsonantManner is the last manner row holding consonants.
const DefaultMaxConsonantManner = 3

// Classifier splits phonemes into consonants and vowels by manner row.
type Classifier struct {
	MaxConsonantManner int
}

// NewClassifier returns a Classifier with the given consonant threshold.
func NewClassifier(maxConsonantManner int) Classifier {
	return Classifier{MaxConsonantManner: maxConsonantManner}
}

// IsConsonant reports whether c sits at or below the threshold row.
func (k Classifier) IsConsonant(c Coordinate) bool {
	return c.Manner <= k.MaxConsonantManner
}

// Legal reports whether f is an acceptable word shape. Rejected shapes are
// the empty form, a lone consonant, two phonemes of the same class at either
// edge and any run of three phonemes of the same class.
func (k Classifier) Legal(f Form) bool {
	switch len(f) {
	case 0:
		return false
	case 1:
		return !k.IsConsonant(f[0])
	}
	n := len(f)
	if k.IsConsonant(f[0]) == k.IsConsonant(f[1]) {
		return false
	}
	if k.IsConsonant(f[n-2]) == k.IsConsonant(f[n-1]) {
		return false
	}
	for i := 0; i+2 < n; i++ {
		a, b, c := k.IsConsonant(f[i]), k.IsConsonant(f[i+1]), k.IsConsonant(f[i+2])
		if a == b && b == c {
			return false
		}
	}
	return true
}
