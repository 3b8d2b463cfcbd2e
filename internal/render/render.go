// Package render draws meter snapshots as a single rewritten terminal
// line. All text formatting and coloring lives here; the metering core
// only emits numeric and enum data.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/oszuidwest/zwfm-levelmeter/internal/audio"
	"github.com/oszuidwest/zwfm-levelmeter/internal/util"
)

// Color zone boundaries on the 0-100 scale.
const (
	yellowZone = 33.0
	redZone    = 66.0
)

// textReserve is the column budget for everything on the line that is
// not the bar itself.
const textReserve = 100

// minBarWidth keeps the bar readable on narrow terminals.
const minBarWidth = 10

var (
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	silenceStyle = lipgloss.NewStyle().Faint(true)
)

// Renderer formats snapshots for a terminal. It is stateless with
// respect to the metering data: everything it draws comes from the
// snapshot it is given.
type Renderer struct {
	width int
	out   io.Writer
}

// New creates a renderer with the given bar width writing to out.
func New(width int, out io.Writer) *Renderer {
	return &Renderer{width: width, out: out}
}

// FitWidth caps a configured bar width to the terminal attached to
// stdout, leaving room for the text after the bar. It returns the
// configured width unchanged when stdout is not a terminal.
func FitWidth(configured int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return configured
	}
	tw, _, err := term.GetSize(fd)
	if err != nil {
		return configured
	}
	if configured+textReserve <= tw {
		return configured
	}
	return max(minBarWidth, tw-textReserve)
}

// Draw writes the meter line for a snapshot, rewriting the current
// terminal line.
func (r *Renderer) Draw(snap audio.Snapshot) {
	fmt.Fprint(r.out, "\r"+r.Line(snap))
}

// Line returns the formatted meter line for a snapshot.
func (r *Renderer) Line(snap audio.Snapshot) string {
	var b strings.Builder

	b.WriteString(r.bar(snap))
	fmt.Fprintf(&b, " %7.2f dB | Min: %6.2f/100 | Max: %6.2f/100 | Current: %6.2f/100 | Trend: %s | Elapsed: %s",
		snap.DB, snap.Min, snap.Max, snap.Current, trendArrow(snap.Trend), formatElapsed(snap))

	if snap.Silence {
		b.WriteString(silenceStyle.Render(" | SILENCE " + util.FormatDuration(snap.SilenceMs)))
	}
	if snap.Alert {
		b.WriteString(alertStyle.Render(" !! ALERT !! "))
	}

	return b.String()
}

// bar renders the colored level bar with the peak-hold marker. Levels
// are clamped to 0-100 here, for display only; the snapshot itself
// carries the unclamped values.
func (r *Renderer) bar(snap audio.Snapshot) string {
	level := clampPercent(snap.Current)
	filled := int(math.Round(level / 100 * float64(r.width)))

	peakPos := -1
	if peak := clampPercent(snap.Peak); peak > 0 {
		peakPos = min(int(math.Round(peak/100*float64(r.width)))-1, r.width-1)
	}

	cells := make([]byte, r.width)
	for i := range cells {
		switch {
		case i < filled:
			cells[i] = '#'
		case i == peakPos:
			cells[i] = '|'
		default:
			cells[i] = ' '
		}
	}

	return zoneStyle(level).Render("[" + string(cells) + "]")
}

// zoneStyle returns the bar style for a display level: green for low,
// yellow for medium, red for high.
func zoneStyle(level float64) lipgloss.Style {
	switch {
	case level < yellowZone:
		return greenStyle
	case level < redZone:
		return yellowStyle
	default:
		return redStyle
	}
}

func clampPercent(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}

// trendArrow maps a trend to its display arrow.
func trendArrow(t audio.Trend) string {
	switch t {
	case audio.TrendUp:
		return "↑"
	case audio.TrendDown:
		return "↓"
	default:
		return "→"
	}
}

// formatElapsed renders elapsed session time as seconds with
// millisecond precision.
func formatElapsed(snap audio.Snapshot) string {
	ms := snap.Elapsed.Milliseconds()
	return fmt.Sprintf("%d.%03ds", ms/1000, ms%1000)
}
