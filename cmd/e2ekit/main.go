// Command e2ekit runs the browser acceptance suite and manages the cached
// login session it uses.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}
