package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	` __      __.__            .___             .__  __   `,
	`/  \    /  \  |__   ____   __| _/_ __  ____ |__|/  |_ `,
	`\   \/\/   /  |  \ /  _ \ / __ |  |  \/    \|  \   __\`,
	` \        /|   Y  (  <_> ) /_/ |  |  /   |  \  ||  |  `,
	`  \__/\  / |___|  /\____/\____ |____/|___|  /__||__|  `,
	`       \/       \/            \/          \/          `,
}

// Deep reds fading to amber, one per line.
var bannerColors = []string{"#7f1d1d", "#991b1b", "#b91c1c", "#c2410c", "#d97706", "#f59e0b"}

// PrintBanner writes the title banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String(fmt.Sprintf("  a murder mystery, v%s", version)).Faint())
	fmt.Fprintln(w)
}
