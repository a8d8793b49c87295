package main

import (
	"context"
	"log"
	"os"

	"umclient/internal/buildinfo"
	"umclient/internal/client/cli"
	"umclient/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
