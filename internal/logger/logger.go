package logger

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/sqve/spaces/internal/styles"
)

var (
	plainMode atomic.Bool
	debugMode atomic.Bool
)

// Init configures output for the current process. Plain mode drops symbols
// and colors; debug mode enables Debug output.
func Init(plain, debug bool) {
	plainMode.Store(plain)
	debugMode.Store(debug)
	styles.SetPlain(plain)
}

func isPlain() bool {
	return plainMode.Load()
}

func IsDebug() bool {
	return debugMode.Load()
}

// Debug prints debug information when debug mode is enabled
func Debug(format string, args ...any) {
	if !IsDebug() {
		return
	}
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]any{styles.Render(&styles.Dimmed, "[DEBUG]")}, args...)...)
}

func Info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Success prints success messages
func Success(format string, args ...any) {
	printSymbol(&styles.Success, "✓", format, args...)
}

func Warning(format string, args ...any) {
	if isPlain() {
		fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		return
	}
	printSymbol(&styles.Warning, "⚠", format, args...)
}

// Error prints error messages to stderr
func Error(format string, args ...any) {
	if isPlain() {
		fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
		return
	}
	printSymbol(&styles.Error, "✗", format, args...)
}

// ListItem prints an indented item below a previous message.
func ListItem(format string, args ...any) {
	bullet := "→"
	if isPlain() {
		bullet = "-"
	}
	fmt.Fprintf(os.Stderr, "  %s "+format+"\n", append([]any{styles.Render(&styles.Dimmed, bullet)}, args...)...)
}

func ListSubItem(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "      "+format+"\n", args...)
}

func printSymbol(style *lipgloss.Style, symbol, format string, args ...any) {
	if isPlain() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		return
	}
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]any{styles.Render(style, symbol)}, args...)...)
}
