package main

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/vango-dev/observe/internal/errors"
	"golang.org/x/term"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"        _                         ", "#818cf8"},
	{"   ___ | |__  ___  ___ _ ____   _____ ", "#a78bfa"},
	{"  / _ \\| '_ \\/ __|/ _ \\ '__\\ \\ / / _ \\", "#c084fc"},
	{" | (_) | |_) \\__ \\  __/ |   \\ V /  __/", "#e879f9"},
	{"  \\___/|_.__/|___/\\___|_|    \\_/ \\___|", "#f472b6"},
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "observe",
		Short: "Transparent object observation for Go",
		Long: `observe wraps objects and arrays so that every read is reported as a
track and every change as a trigger.

Use it to:

  • Watch the demo scenario print each track and trigger
  • Serve a JSON document through the inspector HTTP API
  • Stream events to WebSocket clients and Prometheus`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		demoCmd(),
		serveCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printer writes colored CLI output.
type printer struct {
	w       io.Writer
	profile termenv.Profile
}

// newPrinter returns a printer for w. Colors are off when noColor is set or
// w is a file that is not a terminal.
func newPrinter(w io.Writer, noColor bool) *printer {
	p := termenv.ColorProfile()
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		noColor = true
	}
	if noColor {
		p = termenv.Ascii
	}
	return &printer{w: w, profile: p}
}

func (p *printer) paint(text, color string) termenv.Style {
	return p.profile.String(text).Foreground(p.profile.Color(color))
}

// banner prints the observe ASCII art banner.
func (p *printer) banner() {
	fmt.Fprintln(p.w)
	for _, line := range bannerLines {
		fmt.Fprintln(p.w, p.paint(line.text, line.color))
	}
	fmt.Fprintln(p.w)
}

// success prints a success message.
func (p *printer) success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint("✓", "#22c55e"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (p *printer) info(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func (p *printer) warn(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint("⚠", "#eab308"), fmt.Sprintf(format, args...))
}

func noColorFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-color")
	return v
}
