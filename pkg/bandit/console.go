package bandit

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var separator = strings.Repeat("=", 60)

// Console prints scan progress for humans.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) TargetStarted(target Target) {
	fmt.Fprintf(c.out, "\n%s\nAnalyzing: %s\nPath: %s\n%s\n\n", separator, target.Label, target.Source, separator)
}

func (c *Console) InvocationStarted(name string) {
	fmt.Fprintf(c.out, "▶ Running: %s\n", name)
}

func (c *Console) InvocationFinished(inv Invocation) {
	if inv.Failed() {
		fmt.Fprintf(c.out, "  %s Error: %s\n", color.RedString("✗"), inv.Error)
		return
	}
	fmt.Fprintf(c.out, "  %s Completed\n", color.GreenString("✓"))
}

func (c *Console) TargetFinished(target Target) {
	fmt.Fprintf(c.out, "\n%s %s analysis complete!\n\n", color.GreenString("✓"), target.Label)
}

// AllFinished prints the closing banner after every target was scanned.
func (c *Console) AllFinished(resultsDir string) {
	fmt.Fprintf(c.out, "%s\nALL ANALYSES COMPLETE!\nCheck the %s folder for reports\n%s\n", separator, resultsDir, separator)
}
