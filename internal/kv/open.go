// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kv

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/truthscore/internal/config"
	"github.com/traylinx/truthscore/internal/util"
)

// Open builds the backend selected by cfg.Backend and applies the namespace.
func Open(ctx context.Context, cfg config.StorageConfig, sb *util.StateBox) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		b = NewMemory()
	case config.BackendFile, "":
		b, err = NewFile(sb, cfg.Path)
	case config.BackendRedis:
		b, err = NewRedis(ctx, cfg.RedisURL)
	case config.BackendSQL:
		dsn := cfg.SQLDSN
		if cfg.SQLDriver == "sqlite3" && sb != nil {
			dsn = sb.ResolvePath(dsn)
		}
		b, err = NewSQL(ctx, cfg.SQLDriver, dsn)
	case config.BackendObjectStore:
		b, err = NewObjectStore(ctx, ObjectStoreOptions{
			Endpoint:  cfg.ObjectStore.Endpoint,
			Bucket:    cfg.ObjectStore.Bucket,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			UseSSL:    cfg.ObjectStore.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"backend":   cfg.Backend,
		"namespace": cfg.Namespace,
	}).Info("ledger storage opened")
	return Namespaced(b, cfg.Namespace), nil
}
