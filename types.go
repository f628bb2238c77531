package gorbf

// Laziness tells the reader what to do with a line whose record identifier
// is not in the layout
type Laziness uint8

const (
	// Lazy skips unknown lines silently
	Lazy Laziness = iota
	// Stringent stops reading with a classification error
	Stringent
)

func (l Laziness) String() string {
	if l == Stringent {
		return "stringent"
	}
	return "lazy"
}

// Buffer sizes
const (
	DefaultBufferSize = 64 * 1024 // used when the layout has no uniform record length
)
