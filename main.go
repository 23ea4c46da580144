package main

import (
	"os"

	"github.com/leolearn/leo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
