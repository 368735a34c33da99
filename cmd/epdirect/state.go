// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/repaper/epdirect/frame"
	"github.com/repaper/epdirect/internal/config"
)

// stateFile keeps the image shown on the panel between runs, so that the
// next update can start from it.
type stateFile struct {
	path   string
	width  int
	height int
}

// load returns nil when no image was saved.
func (s *stateFile) load() (*frame.Buffer, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return frame.FromBytes(s.width, s.height, b)
}

func (s *stateFile) save(img *frame.Buffer) error {
	return config.WriteFile(s.path, img.Bytes())
}

func (s *stateFile) forget() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
