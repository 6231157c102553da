package diff

import (
	"fmt"
	"strconv"

	"github.com/jonathan/site-cloner/internal/types"
)

// Message renders the human-readable note for a mismatch.
func Message(m types.Mismatch) string {
	switch m.Kind {
	case types.MismatchH1Text:
		return "H1 text differs"
	case types.MismatchLinkCount:
		return "Large link count difference"
	case types.MismatchHeaderLandmark:
		return "Header/Navigation landmark mismatch"
	case types.MismatchFooterLandmark:
		return "Footer landmark mismatch"
	case types.MismatchNavComponent:
		return "Missing Webflow nav (.w-nav) or equivalent"
	case types.MismatchBBox:
		if m.Deltas == nil {
			return fmt.Sprintf("BBox mismatch for %s", m.Key)
		}
		return fmt.Sprintf("BBox mismatch for %s (dx:%s, dy:%s, dw:%s, dh:%s)", m.Key,
			num(m.Deltas.DX), num(m.Deltas.DY), num(m.Deltas.DW), num(m.Deltas.DH))
	default:
		return string(m.Kind)
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
