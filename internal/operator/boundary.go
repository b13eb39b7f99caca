package operator

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundaryType is the condition applied to one of the six mesh faces. PEC and
// PMC are handled by the operator itself; MUR and PML are realized through
// extensions.
type BoundaryType int

const (
	PEC BoundaryType = iota
	PMC
	MUR
	PML
)

func (b BoundaryType) String() string {
	switch b {
	case PEC:
		return "PEC"
	case PMC:
		return "PMC"
	case MUR:
		return "MUR"
	case PML:
		return "PML"
	}
	return fmt.Sprintf("BoundaryType(%d)", int(b))
}

// FaceNames index the six mesh faces: 2*dir selects the lower face, 2*dir+1
// the upper face of axis dir.
var FaceNames = [6]string{"xmin", "xmax", "ymin", "ymax", "zmin", "zmax"}

const DefaultPMLDepth = 8

// ParseBoundary resolves a per-face boundary token. Accepted forms are the
// numeric codes 0..3 and the symbolic tokens PEC, PMC, MUR and PML_<depth>.
// An unrecognized token yields an error; the caller decides the fallback.
func ParseBoundary(token string) (BoundaryType, int, error) {
	tok := strings.TrimSpace(token)
	if n, err := strconv.Atoi(tok); err == nil {
		if n < int(PEC) || n > int(PML) {
			return PEC, 0, fmt.Errorf("boundary code %d out of range", n)
		}
		return BoundaryType(n), DefaultPMLDepth, nil
	}
	up := strings.ToUpper(tok)
	switch {
	case up == "PEC":
		return PEC, 0, nil
	case up == "PMC":
		return PMC, 0, nil
	case up == "MUR":
		return MUR, 0, nil
	case strings.HasPrefix(up, "PML_"):
		depth, err := strconv.Atoi(up[len("PML_"):])
		if err != nil || depth <= 0 {
			return PEC, 0, fmt.Errorf("invalid PML depth in token %q", token)
		}
		return PML, depth, nil
	}
	return PEC, 0, fmt.Errorf("unknown boundary token %q", token)
}
