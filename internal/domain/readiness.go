package domain

import "fmt"

// Readiness is the health level reported by the search index.
type Readiness string

// Readiness levels, worst first.
const (
	ReadinessRed    Readiness = "red"
	ReadinessYellow Readiness = "yellow"
	ReadinessGreen  Readiness = "green"
)

func (r Readiness) rank() int {
	switch r {
	case ReadinessGreen:
		return 2
	case ReadinessYellow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r is as good as or better than minimum.
func (r Readiness) AtLeast(minimum Readiness) bool {
	return r.rank() >= minimum.rank()
}

// ParseReadiness validates a configured readiness level.
func ParseReadiness(s string) (Readiness, error) {
	switch r := Readiness(s); r {
	case ReadinessRed, ReadinessYellow, ReadinessGreen:
		return r, nil
	default:
		return "", fmt.Errorf("unknown readiness level %q", s)
	}
}
