package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/OlenaPysarenkoQA/CoolChat/internal/chat"
	"github.com/OlenaPysarenkoQA/CoolChat/internal/config"
	"github.com/OlenaPysarenkoQA/CoolChat/internal/credentials"
	"github.com/OlenaPysarenkoQA/CoolChat/internal/discovery"
	"github.com/OlenaPysarenkoQA/CoolChat/internal/history"
	"github.com/OlenaPysarenkoQA/CoolChat/internal/web"
)

func main() {
	app := cli.NewApp()
	app.Name = "coolchat-server"
	app.Usage = "LAN chat server with UDP discovery"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "Path to TOML config file",
		},
		cli.StringFlag{
			Name:  "addr,a",
			Usage: "TCP listen address",
		},
		cli.StringFlag{
			Name:  "users-file",
			Usage: "Path to the username,password file",
		},
		cli.StringFlag{
			Name:  "history-file",
			Usage: "Path to the append-only chat history file",
		},
		cli.IntFlag{
			Name:  "replay",
			Usage: "History lines replayed to a joining client",
		},
		cli.IntFlag{
			Name:  "discovery-port",
			Usage: "UDP port for discovery probes",
		},
		cli.BoolFlag{
			Name:  "no-discovery",
			Usage: "Disable the UDP discovery responder",
		},
		cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Address for the status page and /metrics",
		},
		cli.BoolFlag{
			Name:  "debug,d",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runServer
	app.Commands = []cli.Command{
		{
			Name:  "useradd",
			Usage: "Add a user to the credential file",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "users-file", Value: "users.txt"},
				cli.StringFlag{Name: "username,u"},
				cli.StringFlag{Name: "password,p"},
			},
			Action: runUseradd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if ctx.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	creds, err := credentials.Open(cfg.Storage.UsersFile)
	if err != nil {
		return err
	}
	logger.Info("credentials loaded", "file", cfg.Storage.UsersFile, "users", creds.Len())

	hist, err := history.Open(cfg.Storage.HistoryFile)
	if err != nil {
		return err
	}
	logger.Info("history loaded", "file", cfg.Storage.HistoryFile, "lines", hist.Len())

	srv := chat.NewServer(cfg.Server.Addr, creds, hist, cfg.Server.ReplayLines, logger)
	if err := srv.Start(); err != nil {
		return err
	}

	var responder *discovery.Responder
	if cfg.Discovery.Enabled {
		tcpPort := srv.Addr().(*net.TCPAddr).Port
		responder, err = discovery.NewResponder(cfg.Discovery.Port, tcpPort, logger)
		if err != nil {
			srv.Stop()
			return err
		}
		go responder.Run()
		logger.Info("discovery responder started", "udp_port", cfg.Discovery.Port, "tcp_port", tcpPort)
	}

	var webSrv *web.Server
	if cfg.Metrics.Addr != "" {
		webSrv = web.NewServer(cfg.Metrics.Addr, func() web.Status {
			return web.Status{
				ConnectedClients: srv.Registry().Len(),
				HistoryLines:     hist.Len(),
			}
		}, logger)
		webSrv.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	if webSrv != nil {
		webSrv.Stop()
	}
	if responder != nil {
		responder.Close()
	}
	srv.Stop()

	if err := hist.Close(); err != nil {
		logger.Error("failed to close history", "error", err)
	}
	if err := creds.Save(); err != nil {
		logger.Error("failed to flush credentials", "error", err)
	}
	return nil
}

func runUseradd(ctx *cli.Context) error {
	username := ctx.String("username")
	password := ctx.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("useradd requires --username and --password")
	}

	creds, err := credentials.Open(ctx.String("users-file"))
	if err != nil {
		return err
	}
	if err := creds.Add(username, password); err != nil {
		return err
	}
	if err := creds.Save(); err != nil {
		return err
	}
	fmt.Printf("added user %q\n", username)
	return nil
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("addr") {
		cfg.Server.Addr = ctx.String("addr")
	}
	if ctx.IsSet("users-file") {
		cfg.Storage.UsersFile = ctx.String("users-file")
	}
	if ctx.IsSet("history-file") {
		cfg.Storage.HistoryFile = ctx.String("history-file")
	}
	if ctx.IsSet("replay") {
		cfg.Server.ReplayLines = ctx.Int("replay")
	}
	if ctx.IsSet("discovery-port") {
		cfg.Discovery.Port = ctx.Int("discovery-port")
	}
	if ctx.Bool("no-discovery") {
		cfg.Discovery.Enabled = false
	}
	if ctx.IsSet("metrics-addr") {
		cfg.Metrics.Addr = ctx.String("metrics-addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
