// Command adminctl drives the user and page sections from a terminal using the
// same controllers as the web console.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
