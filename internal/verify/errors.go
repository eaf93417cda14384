// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty or whitespace-only submissions.
	ErrInvalidInput = errors.New("input cannot be empty")

	// ErrInvalidURL matches every *InvalidURLError.
	ErrInvalidURL = errors.New("invalid URL")
)

// InvalidURLError reports a website submission that is not an absolute URL.
type InvalidURLError struct {
	Input string
	Err   error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid URL %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid URL %q", e.Input)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidURL) hold for any InvalidURLError.
func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}
