package main

import (
	"os"

	"github.com/adalundhe/reverie/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
