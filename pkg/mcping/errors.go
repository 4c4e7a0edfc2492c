/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mcping

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// Kind classifies a failed ping.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindConnectionRefused
	KindNetwork
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionRefused:
		return "connection_refused"
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

var (
	ErrTimeout           = errors.New("timeout")
	ErrConnectionRefused = errors.New("connection refused")
	ErrNetwork           = errors.New("network error")
	ErrProtocol          = errors.New("protocol error")

	errVarIntTooBig    = errors.New("varint too big")
	errNegativeLength  = errors.New("negative length")
	errPayloadTooLarge = errors.New("payload exceeds limit")
	errInvalidUTF8     = errors.New("payload is not valid UTF-8")
	errMissingFields   = errors.New("status is missing version or players")
)

// PingError is the only error type returned by Client.Ping. It matches the
// Err* sentinel for its Kind under errors.Is and unwraps to the cause.
type PingError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *PingError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "Timeout"
	case KindConnectionRefused:
		return "Connection refused"
	case KindNetwork:
		return "Network error: " + e.Detail
	case KindProtocol:
		return "Protocol error: " + e.Detail
	default:
		return e.Detail
	}
}

func (e *PingError) Unwrap() error {
	return e.Err
}

func (e *PingError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrConnectionRefused:
		return e.Kind == KindConnectionRefused
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrProtocol:
		return e.Kind == KindProtocol
	}

	return false
}

func protocolError(err error) *PingError {
	return &PingError{Kind: KindProtocol, Detail: err.Error(), Err: err}
}

// classify maps an I/O failure onto a Kind. Deadline and cancellation both
// count as timeouts.
func classify(err error) *PingError {
	var pe *PingError
	if errors.As(err, &pe) {
		return pe
	}

	var netErr net.Error

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return &PingError{Kind: KindConnectionRefused, Detail: err.Error(), Err: err}
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr) && netErr.Timeout():
		return &PingError{Kind: KindTimeout, Detail: err.Error(), Err: err}
	case errors.Is(err, syscall.EADDRINUSE):
		return &PingError{Kind: KindNetwork, Detail: "port in use", Err: err}
	default:
		return &PingError{Kind: KindNetwork, Detail: err.Error(), Err: err}
	}
}
