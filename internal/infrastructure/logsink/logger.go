package logsink

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Color controls colored level names of the text format.
type Color string

const (
	ColorAuto   Color = "auto"
	ColorAlways Color = "always"
	ColorNever  Color = "never"
)

// Options configures NewLogger.
type Options struct {
	Level  string
	Format Format
	Color  Color
}

var levelStyles = map[slog.Level]lipgloss.Style{
	slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB")).Bold(true),
	slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true),
	slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true),
}

// NewLogger builds the process logger writing to w.
func NewLogger(w io.Writer, opts Options) (*slog.Logger, error) {
	var level slog.Level
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch Format(strings.ToLower(string(opts.Format))) {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case FormatText, "":
	default:
		return nil, fmt.Errorf("unsupported log format: %s", opts.Format)
	}

	if colorize(w, opts.Color) {
		handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 || a.Key != slog.LevelKey {
				return a
			}
			lvl, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			if style, ok := levelStyles[lvl]; ok {
				a.Value = slog.StringValue(style.Render(lvl.String()))
			}
			return a
		}
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

func colorize(w io.Writer, mode Color) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
