package main

import (
	"fmt"
	"os"

	"github.com/forjbuild/forj/cmd/forj"
)

func main() {
	rootCmd := forj.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, forj.FormatError(err))
		os.Exit(1)
	}
}
