package main

import (
	"fmt"
	"os"

	"github.com/lengolf/reconcile/internal/cli"
	"github.com/lengolf/reconcile/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseServeFlags()
	cfg := config.LoadOrEnv()

	if err := cli.RunServe(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
