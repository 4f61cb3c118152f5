// Command lineemu runs a production-line emulator: a set of TCP
// listeners that stand in for label printers and vision cameras, for
// exercising MES/ERP integrations without physical floor hardware.
package main

import (
	"fmt"
	"os"

	"github.com/dm-line/lineemu/cmd/lineemu/refurbishment"
	"github.com/dm-line/lineemu/cmd/lineemu/serialization"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("expected a subcommand: s (serialization) or r (refurbishment)")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "s":
		serialization.Main(os.Args[2:])
	case "r":
		refurbishment.Main(os.Args[2:])
	default:
		fmt.Printf("unknown subcommand: %s\n", os.Args[1])
		os.Exit(1)
	}
}
