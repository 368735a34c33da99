// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epdirect drives a repaper.org e-paper panel from the command line.
//
// Usage:
//
//	epdirect [flags] clear
//	epdirect [flags] image <file>
//	epdirect [flags] partial <file>
//	epdirect [flags] text <words...>
//	epdirect [flags] temperature
//	epdirect [flags] watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/repaper/epdirect/frame"
	"github.com/repaper/epdirect/internal/config"
	"github.com/repaper/epdirect/internal/log"
)

type flagConfig struct {
	configPath string
	preview    bool
	ascii      bool
	verbose    bool
}

func parseFlags() flagConfig {
	var f flagConfig
	flag.StringVar(&f.configPath, "config", "/etc/epdirect/config.yaml", "Path to config file")
	flag.BoolVar(&f.preview, "preview", false, "Draw on the terminal instead of the panel")
	flag.BoolVar(&f.ascii, "ascii", false, "Preview with ASCII characters")
	flag.BoolVar(&f.verbose, "v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: epdirect [flags] clear|image|partial|text|temperature|watch [args]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return f
}

func mainImpl() error {
	f := parseFlags()
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if f.verbose {
		level = log.LevelDebug
	}
	log.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("signal received, aborting", "signal", sig.String())
		cancel()
	}()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "temperature" {
		return readTemperature(cfg)
	}

	p, err := cfg.Profile()
	if err != nil {
		return err
	}
	var out output
	if f.preview {
		out = newPreview(p.Width, p.Height, f.ascii)
	} else {
		h, err := openPanel(cfg, p)
		if err != nil {
			return err
		}
		out = h
	}
	defer func() {
		if err := out.halt(); err != nil {
			log.Error("halt failed", err)
		}
	}()
	log.Debug("output ready", "output", out, "panel", p.Name)

	st := &stateFile{path: cfg.StateFile, width: p.Width, height: p.Height}
	switch cmd {
	case "clear":
		if len(args) != 0 {
			return errors.New("clear takes no argument")
		}
		return runClear(ctx, out, st)
	case "image", "partial":
		if len(args) != 1 {
			return fmt.Errorf("%s takes exactly one file", cmd)
		}
		img, err := loadImage(args[0], p.Width, p.Height)
		if err != nil {
			return err
		}
		return runShow(ctx, out, st, img, cmd == "partial")
	case "text":
		if len(args) == 0 {
			return errors.New("text requires at least one word")
		}
		img, err := renderText(p.Width, p.Height, cfg.FontSize, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return runShow(ctx, out, st, img, false)
	case "watch":
		return runWatch(ctx, out, st, cfg)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runClear(ctx context.Context, out output, st *stateFile) error {
	if err := out.clear(ctx); err != nil {
		forget(st)
		return err
	}
	return st.save(frame.New(st.width, st.height))
}

// runShow displays img, starting from the image saved by the previous run
// when there is one.
func runShow(ctx context.Context, out output, st *stateFile, img *frame.Buffer, partial bool) error {
	old, err := st.load()
	if err != nil {
		log.Error("ignoring saved image", err, "path", st.path)
		old = nil
	}
	if partial && old == nil {
		log.Info("no saved image, doing a full update")
		partial = false
	}
	if err := out.show(ctx, old, img, partial); err != nil {
		forget(st)
		return err
	}
	return st.save(img)
}

// forget drops the saved image: the panel content is unknown after a failed
// update.
func forget(st *stateFile) {
	if err := st.forget(); err != nil {
		log.Error("forget saved image", err, "path", st.path)
	}
}

func main() {
	if err := mainImpl(); err != nil {
		log.Error("epdirect", err)
		os.Exit(1)
	}
}
