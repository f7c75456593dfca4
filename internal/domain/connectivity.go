package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Connectivity selects the neighbourhood used by morphology and labeling.
// 4 and 8 apply to planar objects; 6, 18 and 26 apply to volumes.
type Connectivity int

const (
	Conn4  Connectivity = 4
	Conn8  Connectivity = 8
	Conn6  Connectivity = 6
	Conn18 Connectivity = 18
	Conn26 Connectivity = 26
)

// Is2D reports whether c is a planar connectivity.
func (c Connectivity) Is2D() bool { return c == Conn4 || c == Conn8 }

// Is3D reports whether c is a volumetric connectivity.
func (c Connectivity) Is3D() bool { return c == Conn6 || c == Conn18 || c == Conn26 }

// Planar maps a connectivity onto the in-plane neighbourhood it implies:
// 6 behaves as 4 within a plane, 18 and 26 behave as 8.
func (c Connectivity) Planar() (Connectivity, error) {
	switch c {
	case Conn4, Conn6:
		return Conn4, nil
	case Conn8, Conn18, Conn26:
		return Conn8, nil
	default:
		return 0, fmt.Errorf("connectivity %d: %w", int(c), ErrUnsupported)
	}
}

func (c Connectivity) String() string {
	return strconv.Itoa(int(c)) + "-connected"
}

// ParseConnectivity accepts "4", "8", "6", "18" or "26", optionally with a
// "-connected" suffix.
func ParseConnectivity(s string) (Connectivity, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(s, "-connected"))
	if err != nil {
		return 0, fmt.Errorf("connectivity %q: %w", s, ErrUnsupported)
	}
	c := Connectivity(n)
	if !c.Is2D() && !c.Is3D() {
		return 0, fmt.Errorf("connectivity %d: %w", n, ErrUnsupported)
	}
	return c, nil
}
