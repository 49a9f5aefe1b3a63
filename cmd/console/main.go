// Command console prints a page of the Users or Documents table in the
// terminal, applying the same search, sort and paging rules as the web
// console.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
