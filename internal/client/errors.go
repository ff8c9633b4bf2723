// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "errors"

var (
	// ErrUnknownCommand is returned by [App.Run] for an unrecognised command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoCommand is returned by [App.Run] when no command is given.
	ErrNoCommand = errors.New("no command given")

	// ErrResetNotConfirmed is returned by the reset command without --yes.
	ErrResetNotConfirmed = errors.New("reset needs --yes")
)
