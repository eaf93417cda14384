// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/truthscore/internal/archive"
	"github.com/traylinx/truthscore/internal/config"
	"github.com/traylinx/truthscore/internal/kv"
	"github.com/traylinx/truthscore/internal/ledger"
	"github.com/traylinx/truthscore/internal/logging"
	"github.com/traylinx/truthscore/internal/util"
	"github.com/traylinx/truthscore/internal/verify"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	stateBox *util.StateBox
	store    *ledger.Store
	archive  *archive.Archive
	verifier *verify.Verifier
}

// openStateBox honours state-dir from the config before the environment.
func openStateBox(cfg *config.Config) (*util.StateBox, error) {
	if cfg.StateDir == "" {
		return util.NewStateBox()
	}
	dir, err := util.ExpandPath(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	return util.NewStateBoxAt(dir, os.Getenv("TRUTHSCORE_READONLY") == "1")
}

// newApp loads configuration and opens storage. logToFile is only honoured
// for long-running commands so one-off checks keep printing to the terminal.
func newApp(ctx context.Context, logToFile bool) (*app, error) {
	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Debug = true
	}
	logging.SetDebug(cfg.Debug)

	sb, err := openStateBox(cfg)
	if err != nil {
		return nil, fmt.Errorf("state box: %w", err)
	}
	if err := logging.ConfigureLogOutput(logToFile && cfg.LoggingToFile, sb.LogsDir(), cfg.LogsMaxSizeMB); err != nil {
		return nil, err
	}

	backend, err := kv.Open(ctx, cfg.Storage, sb)
	if err != nil {
		return nil, fmt.Errorf("open ledger storage: %w", err)
	}

	a := &app{
		cfg:      cfg,
		stateBox: sb,
		store:    ledger.NewStore(backend),
	}

	var archiver verify.Archiver
	if cfg.Archive.Enabled {
		arch, err := archive.New(cfg.Archive.Path, cfg.Archive.RetentionDays)
		if err == nil {
			arch.SetStateBox(sb)
			err = arch.Initialize(ctx)
		}
		if err != nil {
			log.Warnf("verification archive disabled: %v", err)
		} else {
			a.archive = arch
			archiver = arch
		}
	}

	a.verifier = verify.NewVerifier(a.store, archiver, cfg.SimulatedDelay())
	return a, nil
}

// ledgerPath is reported by the state box status endpoint for file storage.
func (a *app) ledgerPath() string {
	if a.cfg.Storage.Backend != config.BackendFile {
		return ""
	}
	return a.cfg.Storage.Path
}

func (a *app) Close() {
	if a.archive != nil {
		if err := a.archive.Shutdown(); err != nil {
			log.Warn(err)
		}
	}
	if err := a.store.Close(); err != nil {
		log.Warnf("failed to close ledger storage: %v", err)
	}
}
