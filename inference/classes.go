package inference

// Category is the enumerated set of ripeness labels the detection model emits, plus a default arm
// for anything else.
type Category int

const (
	// CategoryUnknown is any label outside the known set.
	CategoryUnknown Category = iota
	// CategoryReady is a mushroom ready for harvest.
	CategoryReady
	// CategoryNotReady is a mushroom that is still growing.
	CategoryNotReady
	// CategoryOverdue is a mushroom past its harvest window.
	CategoryOverdue
)

// Labels emitted by the detection model.
const (
	LabelReady    = "READY"
	LabelNotReady = "NOT_READY"
	LabelOverdue  = "OVERDUE"
)

// ParseCategory maps a label to its category. Matching is exact.
func ParseCategory(label string) Category {
	switch label {
	case LabelReady:
		return CategoryReady
	case LabelNotReady:
		return CategoryNotReady
	case LabelOverdue:
		return CategoryOverdue
	default:
		return CategoryUnknown
	}
}

// Label returns the model label for a known category and "" for CategoryUnknown.
func (c Category) Label() string {
	switch c {
	case CategoryReady:
		return LabelReady
	case CategoryNotReady:
		return LabelNotReady
	case CategoryOverdue:
		return LabelOverdue
	default:
		return ""
	}
}

func (c Category) String() string {
	if c == CategoryUnknown {
		return "UNKNOWN"
	}
	return c.Label()
}
