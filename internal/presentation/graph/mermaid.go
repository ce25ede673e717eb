package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ingest/pkg/domain"
)

// Overlay marks the progress of a session on the graph.
type Overlay struct {
	// Current is the index of the active step. Earlier steps are visited.
	Current int
}

// OverlayFor builds the overlay of a session.
func OverlayFor(state *domain.WizardState) *Overlay {
	if state == nil {
		return nil
	}
	return &Overlay{Current: state.CurrentStep}
}

// GenerateMermaid produces a Mermaid flowchart of the step sequence.
// Shapes follow the step type:
// - Form: [/Parallelogram/]
// - Batch: [[Subroutine]]
// - Ingest (the terminal action): ((Circle))
// Forward edges are solid, "prev" edges are dotted.
func GenerateMermaid(steps []domain.Step, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = fmt.Sprintf("s%d_%s", i, sanitizeMermaidID(step.Key()))

		opener, closer := "[", "]"
		switch step.Type {
		case domain.StepTypeForm:
			opener, closer = "[/", "/]"
		case domain.StepTypeBatch:
			opener, closer = "[[", "]]"
		}

		label := step.Key()
		if step.Title != "" {
			label = fmt.Sprintf("%s <br/> %s", step.Key(), escape(step.Title))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids[i], opener, label, closer)
	}
	if len(steps) > 0 {
		sb.WriteString("    ingest((\"ingest\"))\n")
	}

	for i := range steps {
		if i+1 < len(steps) {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", ids[i], domain.ControlNext, ids[i+1])
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", ids[i+1], domain.ControlPrevious, ids[i])
		} else {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> ingest\n", ids[i], domain.ControlIngest)
		}
	}

	if overlay != nil && len(steps) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the styles readable on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for i := 0; i < overlay.Current && i < len(ids); i++ {
			fmt.Fprintf(&sb, "    class %s visited;\n", ids[i])
		}
		if overlay.Current >= 0 && overlay.Current < len(ids) {
			fmt.Fprintf(&sb, "    class %s current;\n", ids[overlay.Current])
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
