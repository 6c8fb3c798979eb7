package main

import (
	"fmt"
	"os"

	"github.com/maastricht-university/emotion-dataset/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "emodata:", err)
		os.Exit(1)
	}
}
