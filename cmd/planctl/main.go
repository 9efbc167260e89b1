// Command planctl manages goals and weekly training plans from the terminal.
package main

import (
	"fmt"
	"os"
	"time"
)

func main() {
	if err := newRootCmd(os.LookupEnv, time.Now).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
