// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/traylinx/truthscore/internal/api"
	"github.com/traylinx/truthscore/internal/dashboard"
	"github.com/traylinx/truthscore/internal/util"
)

const (
	retentionInterval = 6 * time.Hour
	shutdownTimeout   = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification API",
	Long: `Start the HTTP API used by the browser front end.

Examples:
  # Serve with config.yaml from the working directory
  truthscore serve

  # Serve and open the API health page in a browser
  truthscore serve --open`,
	RunE: func(cmd *cobra.Command, args []string) error {
		openBrowser, _ := cmd.Flags().GetBool("open")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, openBrowser)
	},
}

func init() {
	serveCmd.Flags().Bool("open", false, "Open the API in the default browser once listening")
}

func runServe(ctx context.Context, openBrowser bool) error {
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := util.HardenPermissions(a.stateBox); err != nil {
		log.Warnf("permission hardening failed: %v", err)
	}

	hub := dashboard.NewHub(a.store, a.cfg.CORS.AllowOrigins)
	opts := api.Options{
		Verifier:   a.verifier,
		Dashboard:  hub,
		StateBox:   a.stateBox,
		LedgerPath: a.ledgerPath(),
	}
	if a.archive != nil {
		opts.Archive = a.archive
	}
	server := api.NewServer(a.cfg, opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	if a.cfg.Storage.Watch {
		g.Go(func() error { return a.store.Watch(gctx) })
	}
	if a.archive != nil && !a.stateBox.IsReadOnly() {
		g.Go(func() error { return a.archive.RunRetention(gctx, retentionInterval) })
	}
	g.Go(func() error {
		<-gctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if openBrowser {
		url := fmt.Sprintf("http://%s/healthz", browserHost(a.cfg.Address()))
		if err := open.Run(url); err != nil {
			log.Warnf("failed to open browser: %v", err)
		}
	}

	return g.Wait()
}

// browserHost replaces a wildcard listen host with localhost.
func browserHost(addr string) string {
	switch {
	case strings.HasPrefix(addr, ":"):
		return "localhost" + addr
	case strings.HasPrefix(addr, "0.0.0.0:"):
		return "localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return addr
}
