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

package scan

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// NewDialer returns a dialer bound to 0.0.0.0:sourcePort with SO_REUSEADDR,
// or an ephemeral-port dialer when sourcePort is 0.
func NewDialer(sourcePort uint16) *net.Dialer {
	d := &net.Dialer{}

	if sourcePort != 0 {
		d.LocalAddr = &net.TCPAddr{IP: net.IPv4zero, Port: int(sourcePort)}
		d.Control = reuseAddrControl
	}

	return d
}

// DialTCP connects with NewDialer and enables TCP_NODELAY on the result.
func DialTCP(ctx context.Context, addr netip.Addr, port, sourcePort uint16) (*net.TCPConn, error) {
	target := net.JoinHostPort(addr.String(), strconv.Itoa(int(port)))

	conn, err := NewDialer(sourcePort).DialContext(ctx, "tcp4", target)
	if err != nil {
		return nil, err
	}

	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()

		return nil, &net.OpError{Op: "dial", Net: "tcp4", Err: net.UnknownNetworkError("non-TCP connection")}
	}

	_ = tcp.SetNoDelay(true)

	return tcp, nil
}

// TCPProber is a boolean-only connect check.
type TCPProber struct{}

// NewTCPProber returns a prober.
func NewTCPProber() *TCPProber {
	return &TCPProber{}
}

// Probe reports whether a TCP connect to addr:port completes within timeout.
// Every failure, including refusal, timeout, cancellation and a busy source
// port, is reported as false.
func (*TCPProber) Probe(ctx context.Context, addr netip.Addr, port, sourcePort uint16, timeout time.Duration) bool {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := DialTCP(probeCtx, addr, port, sourcePort)
	if err != nil {
		return false
	}

	_ = conn.Close()

	return true
}
