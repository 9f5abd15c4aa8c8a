// Package driver
package driver

import (
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectNATS connects to the NATS server with reconnect enabled and returns
// the connection.
func ConnectNATS(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
}
