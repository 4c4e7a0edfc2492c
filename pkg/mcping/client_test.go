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
	"bufio"
	"context"
	"io"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loopback = netip.MustParseAddr("127.0.0.1")

// fakeServer accepts connections on loopback and hands each to handle.
func fakeServer(t *testing.T, handle func(t *testing.T, conn net.Conn)) uint16 {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go func() {
				defer func() { _ = conn.Close() }()

				handle(t, conn)
			}()
		}
	}()

	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

// readRequest consumes the handshake and status request and returns the
// handshake body.
func readRequest(conn net.Conn) ([]byte, error) {
	r := bufio.NewReader(conn)

	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	req := make([]byte, 2)
	if _, err := io.ReadFull(r, req); err != nil {
		return nil, err
	}

	return body, nil
}

func statusFrame(payload []byte) []byte {
	body := []byte{0x00}
	body = AppendVarInt(body, int32(len(payload)))
	body = append(body, payload...)

	return append(AppendVarInt(nil, int32(len(body))), body...)
}

func respondWith(frame []byte) func(*testing.T, net.Conn) {
	return func(_ *testing.T, conn net.Conn) {
		if _, err := readRequest(conn); err != nil {
			return
		}

		_, _ = conn.Write(frame)
	}
}

func testClient() *Client {
	return NewClient(Config{
		ProtocolVersion: 767,
		ConnectTimeout:  time.Second,
		ResponseTimeout: 500 * time.Millisecond,
	})
}

func TestPingSuccess(t *testing.T) {
	handshakes := make(chan []byte, 1)

	port := fakeServer(t, func(_ *testing.T, conn net.Conn) {
		body, err := readRequest(conn)
		if err != nil {
			return
		}

		handshakes <- body

		_, _ = conn.Write(statusFrame([]byte(
			`{"version":{"name":"1.21.4","protocol":769},"players":{"max":50,"online":7},"description":{"extra":[{"text":"Hello "},{"text":"there"}]}}`)))
	})

	status, err := testClient().Ping(context.Background(), loopback, port, 0)
	require.NoError(t, err)

	assert.Equal(t, "1.21.4", status.VersionName())
	assert.Equal(t, 7, status.Players.Online)
	assert.Equal(t, 50, status.Players.Max)
	assert.Equal(t, "Hello there", status.DescriptionText())

	body := <-handshakes
	assert.Equal(t, HandshakeFrame("127.0.0.1", port, 767)[1:], body)
}

func TestPingProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"varint too long", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{"negative json length", append([]byte{0x10, 0x00}, AppendVarInt(nil, -5)...)},
		{"json length over limit", append([]byte{0x10, 0x00}, AppendVarInt(nil, 1<<20)...)},
		{"invalid json", statusFrame([]byte(`{"version":`))},
		{"invalid utf8", statusFrame([]byte{'"', 0xfe, '"'})},
		{"closed before varint ends", []byte{0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := fakeServer(t, respondWith(tt.frame))

			_, err := testClient().Ping(context.Background(), loopback, port, 0)
			require.ErrorIs(t, err, ErrProtocol)

			var pe *PingError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, KindProtocol, pe.Kind)
			assert.Contains(t, pe.Error(), "Protocol error: ")
		})
	}
}

func TestPingTruncatedPayloadIsNetworkError(t *testing.T) {
	frame := statusFrame([]byte(`{"version":{"name":"x"},"players":{"max":1,"online":0}}`))
	port := fakeServer(t, respondWith(frame[:len(frame)-5]))

	_, err := testClient().Ping(context.Background(), loopback, port, 0)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestPingSilentServerTimesOut(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	port := fakeServer(t, func(_ *testing.T, conn net.Conn) {
		_, _ = readRequest(conn)
		<-release
	})

	start := time.Now()
	_, err := testClient().Ping(context.Background(), loopback, port, 0)

	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, "Timeout", err.Error())
}

func TestPingConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	_, err = testClient().Ping(context.Background(), loopback, port, 0)
	require.ErrorIs(t, err, ErrConnectionRefused)
}

func TestPingCancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	port := fakeServer(t, func(_ *testing.T, conn net.Conn) {
		_, _ = readRequest(conn)
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(Config{ResponseTimeout: time.Minute})

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.Ping(ctx, loopback, port, 0)
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})

	assert.Equal(t, int32(defaultProtocolVersion), c.cfg.ProtocolVersion)
	assert.Equal(t, defaultConnectTimeout, c.cfg.ConnectTimeout)
	assert.Equal(t, defaultResponseTimeout, c.cfg.ResponseTimeout)
	assert.Equal(t, defaultMaxResponseBytes, c.cfg.MaxResponseBytes)
}
