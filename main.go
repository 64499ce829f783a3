// Package main is the entry point for the talos audit normalization
// service.
package main

import (
	"fmt"
	"os"

	"talos/bootstrap"
	"talos/cmd"
)

func main() {
	app, err := bootstrap.NewApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "talos: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := cmd.NewRootCommand(app).Execute(); err != nil {
		app.Sugar.Errorw("command failed", "error", err)
		os.Exit(1)
	}
}
