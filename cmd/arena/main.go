// Command arena is the ASCII Arena binary: it runs either the
// authoritative server or a thin terminal client, selected by the first
// argument. Exit code 0 means a graceful close; anything else means a
// configuration or bind failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"asciiarena/pkg/arena"
	"asciiarena/pkg/client"
	"asciiarena/pkg/config"
	"asciiarena/pkg/server"
)

func main() {
	sub, args := splitSubcommand(os.Args[1:])

	var err error
	switch sub {
	case "server":
		err = runServer(args)
	case "client":
		err = runClient(args)
	default:
		fmt.Fprintf(os.Stderr, "arena: unknown subcommand %q (want client or server)\n", sub)
		os.Exit(2)
	}

	if err != nil {
		logrus.WithError(err).Error("arena: exiting with error")
		os.Exit(1)
	}
}

// splitSubcommand pulls the subcommand name off the front of args, if one
// is present, defaulting to "client" per the CLI's no-subcommand rule. A
// leading flag (e.g. "-character=A") is never mistaken for a subcommand.
func splitSubcommand(args []string) (string, []string) {
	if len(args) > 0 && !isFlag(args[0]) {
		return args[0], args[1:]
	}
	return "client", args
}

func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

func configureLogging(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warn("arena: invalid log level, using info")
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

// ---- server subcommand ----

func runServer(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("arena: load configuration: %w", err)
	}
	configureLogging(cfg.LogLevel)

	fs := flag.NewFlagSet("server", flag.ExitOnError)
	tcpPort := fs.Int("tcp-port", cfg.ServerTCPPort, "reliable (TCP) listen port")
	udpPort := fs.Int("udp-port", cfg.ServerUDPPort, "unreliable (UDP) listen port")
	players := fs.Int("players", cfg.PlayersNumber, "number of named room slots")
	mapSize := fs.Int("map-size", cfg.MapSize, "arena grid width/height in tiles")
	winnerPoints := fs.Int("winner-points", cfg.WinnerPoints, "arena wins required to end a game")
	arenaWaiting := fs.Duration("arena-waiting", cfg.ArenaWaiting, "countdown before an arena starts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.ServerTCPPort = *tcpPort
	cfg.ServerUDPPort = *udpPort
	cfg.PlayersNumber = *players
	cfg.MapSize = *mapSize
	cfg.WinnerPoints = *winnerPoints
	cfg.ArenaWaiting = *arenaWaiting

	roster := arena.DefaultRoster()
	if cfg.RosterPath != "" {
		loaded, err := config.LoadRoster(cfg.RosterPath)
		if err != nil {
			return fmt.Errorf("arena: load roster: %w", err)
		}
		roster = loaded
	}

	srv, err := server.New(cfg, roster)
	if err != nil {
		return fmt.Errorf("arena: bind server: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"tcp_addr": srv.TCPAddr(),
		"udp_addr": srv.UDPAddr(),
		"players":  cfg.PlayersNumber,
	}).Info("arena: server listening")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case sig := <-sigCh:
		logrus.WithField("signal", sig).Info("arena: received shutdown signal")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("arena: server stopped: %w", err)
		}
	}

	return nil
}

// ---- client subcommand ----

func runClient(args []string) error {
	fs := flag.NewFlagSet("client", flag.ExitOnError)
	serverAddr := fs.String("server-addr", "127.0.0.1:4500", "arena server address")
	character := fs.String("character", "", "player character letter (A-Z)")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	configureLogging(*logLevel)

	addr, err := net.ResolveTCPAddr("tcp", *serverAddr)
	if err != nil {
		return fmt.Errorf("arena: resolve server address %q: %w", *serverAddr, err)
	}

	transport := client.NewTransport()
	input := make(chan client.Action)
	app := client.NewApp(client.Config{ServerAddr: addr, Character: *character}, transport, input, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logrus.Info("arena: received shutdown signal")
		cancel()
	}()

	app.Run(ctx)

	return nil
}
