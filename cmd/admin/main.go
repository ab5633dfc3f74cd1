package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/drivesense/internal/server"
	"github.com/dmitrijs2005/drivesense/internal/server/admin"
	"github.com/dmitrijs2005/drivesense/internal/server/config"
	"github.com/dmitrijs2005/drivesense/internal/server/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.LoadConfig()

	tokens, err := server.TokenService(cfg)
	if err != nil {
		return err
	}

	db, rm, err := server.Storage(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd := admin.NewCommand(services.NewUserService(db, rm, tokens), os.Stdout)
	return cmd.Run(ctx, os.Args[1:])
}
