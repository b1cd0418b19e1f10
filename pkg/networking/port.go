// Package networking provides utilities for network operations,
// such as checking that the local callback port can be bound.
package networking

import (
	"fmt"
	"net"

	"github.com/kauth-dev/kauth/pkg/errors"
	"github.com/kauth-dev/kauth/pkg/logger"
)

// IsAvailable checks if a TCP port is available on the loopback interface.
func IsAvailable(port int) bool {
	tcpAddr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}

	tcpListener, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return false
	}
	if err := tcpListener.Close(); err != nil {
		// Log the error but continue, as we're just checking if the port is available
		logger.Warnf("Warning: Failed to close TCP listener: %v", err)
	}

	return true
}

// EnsureAvailable validates the port range and checks that the port can be
// bound. A busy port is a hard failure surfaced as a port_in_use error so
// the caller can tell the user to free it or reconfigure.
func EnsureAvailable(port int) error {
	if port < 1 || port > 65535 {
		return errors.NewInternalError(fmt.Sprintf("invalid callback port %d", port), nil)
	}
	if !IsAvailable(port) {
		return errors.NewPortInUseError(
			fmt.Sprintf("port %d is already in use, free it or set a different callback port", port), nil)
	}
	return nil
}
