// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/repaper/epdirect/internal/config"
	"github.com/repaper/epdirect/internal/log"
	"github.com/robfig/cron/v3"
)

// watcher redraws the current time on each cron tick.
type watcher struct {
	out output
	st  *stateFile
	cfg *config.Config

	mu    sync.Mutex
	ticks int
}

func (w *watcher) tick(ctx context.Context, now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	text := now.Format(w.cfg.Watch.Format)
	img, err := renderText(w.st.width, w.st.height, w.cfg.FontSize, text)
	if err != nil {
		return err
	}
	full := w.cfg.Watch.FullEvery > 0 && w.ticks%w.cfg.Watch.FullEvery == 0
	partial := w.cfg.Watch.Partial && !full
	w.ticks++
	start := time.Now()
	if err := runShow(ctx, w.out, w.st, img, partial); err != nil {
		return err
	}
	log.Info("watch update", "text", text, "partial", partial, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func runWatch(ctx context.Context, out output, st *stateFile, cfg *config.Config) error {
	w := &watcher{out: out, st: st, cfg: cfg}
	c := cron.New()
	_, err := c.AddFunc(cfg.Watch.Cron, func() {
		if err := w.tick(ctx, time.Now()); err != nil {
			log.Error("watch update failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("watch schedule %q: %w", cfg.Watch.Cron, err)
	}
	if err := w.tick(ctx, time.Now()); err != nil {
		return err
	}
	log.Info("watching", "cron", cfg.Watch.Cron)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
