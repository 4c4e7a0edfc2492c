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

// Package mcping implements the server list ping: handshake, status request
// and the framed JSON status response.
package mcping

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/carverauto/craftradar/pkg/scan"
)

const (
	defaultConnectTimeout   = 1500 * time.Millisecond
	defaultResponseTimeout  = 3 * time.Second
	defaultMaxResponseBytes = 64 * 1024
	defaultProtocolVersion  = 767
)

// Config holds client settings. Zero fields take defaults.
type Config struct {
	ProtocolVersion  int32
	ConnectTimeout   time.Duration
	ResponseTimeout  time.Duration
	MaxResponseBytes int
}

// Client pings servers. It is safe for concurrent use; every Ping uses its
// own connection.
type Client struct {
	cfg Config
}

// NewClient returns a client with cfg, defaults filled in.
func NewClient(cfg Config) *Client {
	if cfg.ProtocolVersion == 0 {
		cfg.ProtocolVersion = defaultProtocolVersion
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = defaultResponseTimeout
	}

	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaultMaxResponseBytes
	}

	return &Client{cfg: cfg}
}

// Ping connects to addr:port, optionally from sourcePort, and returns the
// decoded status. Any error is a *PingError.
func (c *Client) Ping(ctx context.Context, addr netip.Addr, port, sourcePort uint16) (*ServerStatus, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	conn, err := scan.DialTCP(dialCtx, addr, port, sourcePort)

	cancel()

	if err != nil {
		return nil, classify(err)
	}

	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.cfg.ResponseTimeout)); err != nil {
		return nil, classify(err)
	}

	// Unblock reads and writes as soon as ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.Write(HandshakeFrame(addr.String(), port, c.cfg.ProtocolVersion)); err != nil {
		return nil, classify(err)
	}

	if _, err := conn.Write(statusRequest); err != nil {
		return nil, classify(err)
	}

	status, err := c.readStatus(bufio.NewReader(conn))
	if err != nil {
		if ctx.Err() != nil {
			return nil, classify(ctx.Err())
		}

		return nil, err
	}

	return status, nil
}

// readStatus reads the response frame: packet length and packet id are
// skipped, then the JSON string is read and decoded.
func (c *Client) readStatus(r *bufio.Reader) (*ServerStatus, error) {
	if _, err := readFrameVarInt(r); err != nil {
		return nil, err
	}

	if _, err := readFrameVarInt(r); err != nil {
		return nil, err
	}

	n, err := readFrameVarInt(r)
	if err != nil {
		return nil, err
	}

	switch {
	case n < 0:
		return nil, protocolError(fmt.Errorf("%w: %d", errNegativeLength, n))
	case int(n) > c.cfg.MaxResponseBytes:
		return nil, protocolError(fmt.Errorf("%w: %d > %d", errPayloadTooLarge, n, c.cfg.MaxResponseBytes))
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, classify(err)
	}

	return decodeStatus(payload)
}

// readFrameVarInt reads a varint from the response. Timeouts stay timeouts;
// anything else that breaks a varint, including EOF, is a protocol error.
func readFrameVarInt(r io.ByteReader) (int32, error) {
	v, err := ReadVarInt(r)
	if err == nil {
		return v, nil
	}

	if pe := classify(err); pe.Kind == KindTimeout {
		return 0, pe
	}

	return 0, protocolError(err)
}
