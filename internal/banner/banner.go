// Package banner prints the startup topology summary operators watch
// for when bringing a line emulator process up.
package banner

import (
	"fmt"

	"github.com/fatih/color"
)

// Print renders title followed by one colored line per topology entry.
func Print(title string, lines []string) {
	bold := color.New(color.Bold, color.FgCyan)
	bold.Println(title)

	arrow := color.New(color.FgGreen)
	for _, l := range lines {
		arrow.Printf("  %s\n", l)
	}
	fmt.Println()
}
