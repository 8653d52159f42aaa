// Command docflow converts PDFs and scanned images into text, tables,
// renamed copies and metadata records.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
