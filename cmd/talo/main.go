// Command talo calls the Talo payment API and serves inbound webhooks.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(newApp(os.Stdout, os.Stderr)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "talo:", err)
		os.Exit(1)
	}
}
