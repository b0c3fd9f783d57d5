package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/classpulse-api/internal/cli"
)

func main() {
	if err := cli.Execute(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
