package main

import (
	"context"
	"os"

	"github.com/klabast/wb-services/event-kalender/internal/commands"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := commands.NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
