package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/evanphx/rawsys/abi/linux"
)

func cmdTable(args []string) int {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "NAME\tNUMBER\n")

	for name, no := range linux.Table().AllFromFront() {
		fmt.Fprintf(tw, "%s\t%d\n", name, uintptr(no))
	}

	return 0
}
