package main

import (
	"os"

	"github.com/soundprediction/chronograph/cmd/chronograph"
)

func main() {
	if err := chronograph.Execute(); err != nil {
		os.Exit(1)
	}
}
