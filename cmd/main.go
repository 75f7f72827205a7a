package main

import (
	"fmt"
	"os"

	"github.com/yungbote/coursecraft-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "coursecraft:", err)
		os.Exit(1)
	}
}
