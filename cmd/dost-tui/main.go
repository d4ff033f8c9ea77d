package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dost-app/tui/internal/app"
	"github.com/dost-app/tui/internal/client"
	"github.com/dost-app/tui/internal/config"
	"github.com/dost-app/tui/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file (YAML)")
	server := flag.String("server", "", "Server base URL, e.g. http://127.0.0.1:8000")
	room := flag.String("room", "", "Room code to join on startup")
	create := flag.Bool("create", false, "Create a new room and join it")
	gameType := flag.String("game", "tic_tac_toe", "Game type for -create")
	username := flag.String("username", "", "Log in with this username before starting")
	password := flag.String("password", "", "Password for -username")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *server != "" {
		cfg.Server.URL = *server
	}

	log, closeLog := logging.New(cfg.Log.Path, cfg.Log.Level)
	defer closeLog()

	tokens := client.NewTokenStore(cfg.Server.TokenPath)
	api := client.NewHTTPClient(cfg.Server.URL, tokens)

	if *username != "" {
		if _, err := api.Login(*username, *password); err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}
		log.Info().Str("username", *username).Msg("logged in")
	}

	initialRoom := *room
	if *create {
		created, err := api.CreateRoom(*gameType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create room: %v\n", err)
			os.Exit(1)
		}
		initialRoom = created.RoomCode
		log.Info().Str("room", initialRoom).Msg("created room")
	}

	sockCfg := client.DefaultConfig(cfg.Server.URL)
	sockCfg.Token = tokens.Source()
	sockCfg.ReconnectBaseDelay = cfg.Game.ReconnectBaseDelay
	sockCfg.MaxReconnectAttempts = cfg.Game.MaxReconnectAttempts
	sockCfg.HandshakeTimeout = cfg.Game.HandshakeTimeout
	sockCfg.Logger = log

	sock := client.NewGameSocket(sockCfg)
	session := client.NewGameSession(sock, client.SessionConfig{
		AutoJoin: cfg.Game.AutoJoin,
		Logger:   log,
	})
	defer session.Close()

	m := app.New(session, initialRoom, log)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
