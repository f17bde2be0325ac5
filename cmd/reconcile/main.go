package main

import (
	"fmt"
	"os"

	"github.com/lengolf/reconcile/internal/cli"
	"github.com/lengolf/reconcile/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseReconcileFlags()
	cfg := config.LoadOrEnv()

	if err := cli.RunReconcile(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
