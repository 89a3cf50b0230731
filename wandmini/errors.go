// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package wandmini

import "errors"

var (
	// ErrInvalidState marks API misuse, such as starting a session
	// that is already streaming.
	ErrInvalidState = errors.New("wandmini: invalid session state")

	// ErrPersistence marks a failure to write a session's table.
	ErrPersistence = errors.New("wandmini: persistence failure")
)
