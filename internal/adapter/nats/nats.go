// Package nats manages the JetStream connection and the key-value buckets
// the shared cache and idempotency layers ride on.
package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Conn wraps a NATS connection with its JetStream context.
type Conn struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and initializes JetStream.
func Connect(_ context.Context, url string) (*Conn, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	slog.Info("nats connected", "url", url)
	return &Conn{nc: nc, js: js}, nil
}

// KeyValue returns the named KV bucket, creating it when absent. Bucket
// history stays at 1: the cache and idempotency layers only ever read the
// latest revision.
func (c *Conn) KeyValue(ctx context.Context, bucket string) (jetstream.KeyValue, error) {
	kv, err := c.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  bucket,
		History: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstream kv bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// Close shuts down the NATS connection.
func (c *Conn) Close() error {
	c.nc.Close()
	return nil
}
