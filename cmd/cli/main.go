package main

import (
	"context"
	"log"
	"os"

	"github.com/chafidzadlan/anotherfile/internal/buildinfo"
	"github.com/chafidzadlan/anotherfile/internal/client/cli"
	"github.com/chafidzadlan/anotherfile/internal/client/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
