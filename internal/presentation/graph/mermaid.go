// Package graph renders the location graph as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/whodunit/pkg/domain"
)

// Overlay contains play or authoring state to highlight on the map.
type Overlay struct {
	Visited []string
	Current string
	// Scene is the location of the murder.
	Scene string
}

// GenerateMermaid produces a Mermaid flowchart from a list of locations.
// Passages that go both ways are drawn once as <-->; one-way passages are
// dotted so they stand out. Shapes:
// - Scene: (((Double circle)))
// - Occupied: ([Stadium]), labelled with who is there
// - Default: [Rectangle]
func GenerateMermaid(locations []domain.Location, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	byID := make(map[string]domain.Location, len(locations))
	for _, l := range locations {
		byID[l.ID] = l
	}

	for _, l := range locations {
		safeID := sanitizeMermaidID(l.ID)
		label := l.Name
		if label == "" {
			label = l.ID
		}
		label = strings.ReplaceAll(label, "\"", "'")

		opener, closer := "[", "]"
		switch {
		case overlay != nil && overlay.Scene == l.ID:
			opener, closer = "(((", ")))"
		case len(l.Occupants) > 0:
			opener, closer = "([", "])"
			label = fmt.Sprintf("%s <br/> %s", label, strings.ReplaceAll(strings.Join(l.Occupants, ", "), "\"", "'"))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	drawn := make(map[[2]string]bool)
	for _, l := range locations {
		for _, to := range l.ConnectedTo {
			if drawn[[2]string{l.ID, to}] {
				continue
			}
			arrow := "-.->"
			if back, ok := byID[to]; ok && back.ConnectsTo(l.ID) {
				arrow = "<-->"
				drawn[[2]string{to, l.ID}] = true
			}
			drawn[[2]string{l.ID, to}] = true
			fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(l.ID), arrow, sanitizeMermaidID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef scene fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.Scene != "" {
			fmt.Fprintf(&sb, "    class %s scene;\n", sanitizeMermaidID(overlay.Scene))
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
