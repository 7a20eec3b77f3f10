package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════╗
    ║  ┏━╸╻  ╻┏━╸╻┏ ┏━┓┏━╸┏━┓╻╺┳┓                              ║
    ║  ┣╸ ┃  ┃┃  ┣┻┓┣┳┛┃╺┓┣┳┛┃ ┃┃                              ║
    ║  ╹  ┗━╸╹┗━╸╹ ╹╹┗╸┗━┛╹┗╸╹╺┻┛                              ║
    ║        GRID PHOTO CRAWLER FOR THE FLICKR API             ║
    ╚════════════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Blue    = colorize("\033[34m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects everything this package prints. It returns the
// previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

func writer() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(writer(), Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(writer(), Red("✖ "+msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(writer(), Red("✖ "+msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(writer(), Green("✔ "+msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(writer(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(writer(), Yellow("⚠ "+msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(writer(), Yellow("⚠ "+msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(writer(), Magenta(msg))
}

// Field is one labelled line of a banner
type Field struct {
	Label string
	Value string
}

// PrintBanner prints a title followed by aligned label/value lines, used to
// echo the effective configuration before a stage starts.
func PrintBanner(title string, fields []Field) {
	w := writer()
	width := 0
	for _, f := range fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, Magenta(title))
	fmt.Fprintln(w)
	fmt.Fprintln(w, Cyan("Using the following configuration:"))
	for _, f := range fields {
		label := f.Label + ":" + strings.Repeat(" ", width-len(f.Label))
		fmt.Fprintf(w, "  %s %s\n", Blue(label), f.Value)
	}
	fmt.Fprintln(w)
}
