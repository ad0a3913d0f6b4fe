package styles

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

var (
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	Dimmed  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	Path    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	Space   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	Header  = lipgloss.NewStyle().Bold(true)
)

var plain atomic.Bool

// SetPlain toggles plain output for every subsequent Render call.
func SetPlain(enabled bool) {
	plain.Store(enabled)
}

func IsPlain() bool {
	return plain.Load()
}

func Render(style *lipgloss.Style, text string) string {
	if IsPlain() {
		return text
	}

	// Allow us to force enable colors in certain tests, since lipgloss disables
	// colors in test enviroments.
	if os.Getenv("SPACES_TEST_COLORS") == "true" {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}

	return style.Render(text)
}

// Table renders rows under headers. Plain mode falls back to tab separated
// lines so output stays stable for scripts.
func Table(headers []string, rows [][]string) string {
	if IsPlain() {
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		return b.String()
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Header.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
	return t.Render() + "\n"
}
