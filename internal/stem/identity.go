package stem

// Identity is a model.Stemmer that returns the word unchanged. The
// stemmer algorithm itself is out of scope for this engine — hosts are
// expected to plug in a real one — but a runnable default keeps the
// compound decomposer exercisable without an external dependency.
type Identity struct{}

// Stem implements model.Stemmer.
func (Identity) Stem(word string, normalize bool) string { return word }
