// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/juju/errors"
)

// ErrUnavailable is matched by every failure to reach a backing store, including
// timeouts. It is never a NotFound: callers can tell "no data" from "could not reach data".
var ErrUnavailable = errors.New("store unavailable")

type unavailableError struct {
	backend string
	err     error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.backend, e.err)
}

func (e *unavailableError) Unwrap() error {
	return e.err
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable wraps a backend failure so that it matches ErrUnavailable.
func Unavailable(backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return &unavailableError{backend: backend, err: err}
}

// UnavailableOnConnection wraps err as Unavailable only if it was caused by a
// lost connection or an expired deadline. Other errors, such as a missing
// table, are traced as they are.
func UnavailableOnConnection(backend string, err error) error {
	if err == nil {
		return nil
	}
	if IsConnectionError(err) {
		return Unavailable(backend, err)
	}
	return errors.Trace(err)
}

// IsConnectionError reports whether err comes from reaching a store rather
// than from the request itself.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// database/sql does not export this one
	return strings.Contains(err.Error(), "sql: database is closed")
}

// IsUnavailable reports whether err was caused by an unreachable store.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsTimeout reports whether err was caused by an expired deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// ErrCorrupted is matched by stored data that cannot be decoded. It is a fault
// of the store content, never a NotValid caused by the caller.
var ErrCorrupted = errors.New("corrupted data")

type corruptedError struct {
	what string
	err  error
}

func (e *corruptedError) Error() string {
	return fmt.Sprintf("corrupted %s: %v", e.what, e.err)
}

func (e *corruptedError) Is(target error) bool {
	return target == ErrCorrupted
}

// Corrupted wraps a decoding failure of stored data. The cause is kept in the
// message only, so a NotValid cause does not leak through errors.Is.
func Corrupted(what string, err error) error {
	if err == nil {
		return nil
	}
	return &corruptedError{what: what, err: err}
}
