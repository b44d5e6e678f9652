package main

import (
	"context"
	"log"
	"os"

	"github.com/akihokurino/works-server/internal/server"
	"github.com/akihokurino/works-server/internal/server/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := server.WithSignals(context.Background())
	defer stop()

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
		return 1
	}
	return 0
}
