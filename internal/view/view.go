// Package view renders the InfoPulse state as text.
//
// Rendering is a pure function of the click counter and the server info.
// It never fails: whatever values the store holds are shown as they are.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jpalmerr/infopulse/internal/store"
)

// Heading is the title of the server info section.
const Heading = "API Info"

// Seconds formats a millisecond uptime as seconds with no rounding, using the
// shortest decimal that represents uptime/1000 exactly (12345 -> "12.345").
func Seconds(uptimeMs float64) string {
	return strconv.FormatFloat(uptimeMs/1000, 'f', -1, 64)
}

// Lines returns the rendered view one line per element.
func Lines(clicks int64, info store.ServerInfo) []string {
	return []string{
		fmt.Sprintf("count is %d", clicks),
		Heading,
		fmt.Sprintf("Uptime: %s seconds", Seconds(info.Uptime)),
		fmt.Sprintf("Count: %d", info.Count),
	}
}

// Render returns the full text view.
func Render(clicks int64, info store.ServerInfo) string {
	return strings.Join(Lines(clicks, info), "\n") + "\n"
}
