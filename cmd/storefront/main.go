package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/cartstore"
	"github.com/RohitVelivela/vijaybrothers/internal/client"
	"github.com/RohitVelivela/vijaybrothers/internal/config"
	"github.com/RohitVelivela/vijaybrothers/internal/logger"
)

type app struct {
	cfg   *config.Client
	log   *zap.Logger
	api   *client.Client
	carts *cartstore.Store
}

func main() {
	a := &app{}
	cliApp := &cli.App{
		Name:  "storefront",
		Usage: "Vijay Brothers storefront from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "storefront API base URL"},
			&cli.StringFlag{Name: "guest-id", Usage: "guest id (UUID); a new one is generated when empty"},
			&cli.StringFlag{Name: "log-level", Usage: "zap log level"},
		},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			cartCommand(a),
			checkoutCommand(a),
			orderCommand(a),
			reviewCommand(a),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(c *cli.Context) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if v := c.String("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v := c.String("guest-id"); v != "" {
		cfg.GuestID = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.GuestID == "" {
		cfg.GuestID = uuid.NewString()
		fmt.Fprintf(c.App.ErrWriter, "new guest id; keep it with: export STOREFRONT_GUEST_ID=%s\n", cfg.GuestID)
	}

	log, err := logger.New(cfg.LogLevel, true)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.api = client.New(cfg.APIURL, cfg.GuestID, cfg.RequestTimeout)
	a.carts = cartstore.New(a.api, cfg.GuestID, log)
	return nil
}

func (a *app) teardown(*cli.Context) error {
	if a.carts != nil {
		a.carts.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}
