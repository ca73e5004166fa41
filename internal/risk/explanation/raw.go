package explanation

// Raw is the closed set of result shapes an explanation backend can produce.
// Adapters at the backend boundary build one of these; Normalize matches on
// them exhaustively.
type Raw interface {
	// Kind names the shape for logs and metrics.
	Kind() string
	isRaw()
}

const (
	KindModernStructured   = "modern_structured"
	KindLegacyArray        = "legacy_array"
	KindLegacyPerClassList = "legacy_per_class"
)

// ModernStructured carries attribution values together with their own base
// values. Values may have a batch and/or a class dimension. BaseValues may be
// absent.
type ModernStructured struct {
	Values     Array
	BaseValues Array
}

// LegacyArray is a bare array of attribution values with no base value
// attached; the base comes from the explainer's expected value.
type LegacyArray struct {
	Values Array
}

// LegacyPerClassList holds one attribution array per class.
type LegacyPerClassList struct {
	ValuesByClass []Array
}

func (ModernStructured) Kind() string   { return KindModernStructured }
func (LegacyArray) Kind() string        { return KindLegacyArray }
func (LegacyPerClassList) Kind() string { return KindLegacyPerClassList }

func (ModernStructured) isRaw()   {}
func (LegacyArray) isRaw()        {}
func (LegacyPerClassList) isRaw() {}
