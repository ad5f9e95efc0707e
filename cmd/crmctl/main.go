package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ledgerline/crm-api/internal/cli"
	"github.com/mattn/go-isatty"
)

func main() {
	app := &cli.App{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
