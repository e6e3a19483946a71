package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	relay "github.com/z0r1k/textchat-acc-pack/internal/adapters/signal"
	"github.com/z0r1k/textchat-acc-pack/internal/app/textchat"
	"github.com/z0r1k/textchat-acc-pack/internal/config"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
)

const usage = `commands: /quit  /who  /nick <alias>  /connect  /disconnect`

func main() {
	fs := pflag.NewFlagSet("textchat", pflag.ExitOnError)
	config.ChatFlags(fs)
	_ = fs.Parse(os.Args[1:])

	config.SetupLogging("warn")
	cfg, err := config.LoadChat(fs)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	config.SetupLogging(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stdin := bufio.NewReader(os.Stdin)
	ct := relay.NewClientTransport(cfg.ServerURL, nil, nil)
	ct.MaxFrame = cfg.MaxFrame
	var transport core.Transport = ct
	creds := cfg.Credentials
	if cfg.P2P != "" {
		tr, pc, err := dialP2P(ctx, cfg.P2P, stdin, os.Stdout)
		if err != nil {
			log.Error().Err(err).Msg("p2p setup failed")
			os.Exit(1)
		}
		defer pc.Close()
		transport, creds = tr, p2pCredentials
	}

	session, err := textchat.NewSession(textchat.Config{
		Alias:            cfg.Alias,
		Credentials:      creds,
		DividerThreshold: cfg.DividerThreshold,
		SendTimeout:      cfg.SendTimeout,
		Transport:        transport,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		os.Exit(1)
	}
	defer session.Close()

	session.Subscribe(renderer{out: os.Stdout})
	session.ConnectWithHandler(func(e core.Event) {
		if e.Kind() == core.KindConnected {
			fmt.Println(usage)
		}
	})

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(session, line); quit {
				return
			}
		}
	}
}

func handleLine(s *textchat.Session, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch cmd {
	case "/quit":
		s.Disconnect()
		return true
	case "/who":
		who := append([]string{s.Alias() + " (you)"}, s.PeerAliases()...)
		fmt.Println(strings.Join(who, ", "))
	case "/nick":
		if err := s.SetAlias(strings.TrimSpace(arg)); err != nil {
			fmt.Println(err)
		}
	case "/connect":
		s.Connect()
	case "/disconnect":
		s.Disconnect()
	default:
		s.SendMessage(line)
	}
	return false
}
