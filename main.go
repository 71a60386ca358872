package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"icebattle/client"
	"icebattle/tui"
)

// icebattle: joins one match as a player and keeps the local game state in
// sync with the match server.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile   string
		wsBase    string
		apiBase   string
		playerID  string
		matchID   string
		opponent  string
		logFile   string
		debugAddr string
		headless  bool
		verbose   bool
	)
	flag.StringVar(&envFile, "env", "", "dotenv file to load (default .env if present)")
	flag.StringVar(&wsBase, "ws", "", "match server websocket base url, e.g. ws://localhost:3000")
	flag.StringVar(&apiBase, "api", "", "match server http base url")
	flag.StringVar(&playerID, "player", "", "player id")
	flag.StringVar(&matchID, "match", "", "match id")
	flag.StringVar(&opponent, "opponent", "", "opponent player id, learned from the first snapshot when empty")
	flag.StringVar(&logFile, "log", "", "log file path")
	flag.StringVar(&debugAddr, "debug-addr", "", "listen address of the debug HTTP server, e.g. 127.0.0.1:7070")
	flag.BoolVar(&headless, "headless", false, "do not take over the terminal; drive input over the debug server")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := client.LoadConfig(files...)
	if err != nil {
		return err
	}
	override(&cfg.WSBaseURL, wsBase)
	override(&cfg.APIBaseURL, apiBase)
	override(&cfg.PlayerID, playerID)
	override(&cfg.MatchID, matchID)
	override(&cfg.OpponentID, opponent)
	override(&cfg.LogFile, logFile)
	override(&cfg.DebugAddr, debugAddr)
	cfg.Debug = verbose

	if err := client.InitLogger(cfg.LogFile, cfg.Debug); err != nil {
		return err
	}
	defer client.SyncLogger()

	sess, err := client.NewSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sess.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-sess.Done():
			return sess.Err()
		case <-gctx.Done():
			return nil
		}
	})

	if cfg.DebugAddr != "" {
		srv := &http.Server{Addr: cfg.DebugAddr, Handler: client.NewDebugRouter(sess)}
		g.Go(func() error {
			client.Log.Infof("debug server listening on %s", cfg.DebugAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("debug server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if !headless {
		term := tui.New(tui.Options{
			Keys:   sess.Input,
			Sender: sess,
			Status: sess.StatusLine,
		})
		g.Go(func() error {
			err := term.Run(gctx)
			if errors.Is(err, tui.ErrQuit) {
				// Leaving is a normal way out; unwind the other goroutines.
				stop()
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	client.Log.Infow("shutting down", "err", err)
	return err
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}
