// Command vnvheap-demo is a small harness that drives a vNV-heap against
// a chosen storage backend, narrating the allocate/get/get_mut/unload/
// drop lifecycle and the persist-access-point signal handler. It exists
// to give the library a runnable example the way a deployed binary
// exercises its backing libraries; the library itself takes no config
// file or CLI.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/vnvheap/cmd/vnvheap-demo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
