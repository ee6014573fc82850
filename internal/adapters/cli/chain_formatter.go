package cli

import (
	"fmt"
	"strings"

	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
)

// ChainFormatter renders a saved command chain as an indented tree, the
// top-level command first and the active leaf last
type ChainFormatter struct {
	useColors bool
}

// NewChainFormatter creates a new chain formatter
func NewChainFormatter(useColors bool) *ChainFormatter {
	return &ChainFormatter{useColors: useColors}
}

// FormatChain renders every snapshot in the chain with its parameters
func (f *ChainFormatter) FormatChain(root *domainAutopilot.Snapshot) string {
	if root == nil {
		return "(empty chain)"
	}

	var builder strings.Builder
	prefix := ""
	for s := root; s != nil; s = s.Child {
		linePrefix := ""
		if s != root {
			linePrefix = prefix + "└── "
			prefix += "    "
		}

		marker := ""
		if s.Child == nil {
			marker = f.color("\033[32m") + " (active)" + f.colorReset()
		}
		fmt.Fprintf(&builder, "%s%s%s%s%s%s\n",
			linePrefix, f.color("\033[36m"), s.Kind, f.colorReset(), marker, f.details(s))
	}
	return builder.String()
}

// FormatCompactChain renders the chain on one line, e.g. DOCK > FLY_TO > FLY_AROUND
func (f *ChainFormatter) FormatCompactChain(root *domainAutopilot.Snapshot) string {
	if root == nil {
		return "-"
	}
	kinds := make([]string, 0, root.Depth())
	for s := root; s != nil; s = s.Child {
		kinds = append(kinds, string(s.Kind))
	}
	return strings.Join(kinds, " > ")
}

func (f *ChainFormatter) details(s *domainAutopilot.Snapshot) string {
	switch {
	case s.FlyTo != nil:
		d := s.FlyTo
		target := fmt.Sprintf("body %d", d.TargetIndex)
		if d.TargetIndex == domainAutopilot.NoIndex {
			target = fmt.Sprintf("frame %d", d.TargetFrameIndex)
		}
		return fmt.Sprintf(" %s offset (%.0f, %.0f, %.0f) standoff %.0fm state %d",
			target, d.Offset.X, d.Offset.Y, d.Offset.Z, d.Standoff, d.State)
	case s.FlyAround != nil:
		d := s.FlyAround
		return fmt.Sprintf(" around body %d at %.0fm, %s mode", d.ObstructorIndex, d.Altitude, d.Mode)
	case s.Dock != nil:
		return fmt.Sprintf(" station %d stage %s", s.Dock.StationIndex, s.Dock.Stage)
	case s.Kamikaze != nil:
		return fmt.Sprintf(" target body %d", s.Kamikaze.TargetIndex)
	case s.Formation != nil:
		d := s.Formation
		return fmt.Sprintf(" leader %d offset (%.0f, %.0f, %.0f)", d.LeaderIndex, d.Offset.X, d.Offset.Y, d.Offset.Z)
	case s.TransitAround != nil:
		d := s.TransitAround
		return fmt.Sprintf(" around body %d at %.0fm, phase %s", d.ObstructorIndex, d.Altitude, d.Phase)
	}
	return ""
}

func (f *ChainFormatter) color(code string) string {
	if f.useColors {
		return code
	}
	return ""
}

func (f *ChainFormatter) colorReset() string {
	return f.color("\033[0m")
}
