// Package queue defines the reship job queues: their names, payload
// envelopes, retry policies, producers, consumers, and the cron schedule
// registry that feeds the recurring ones. The package speaks the core job
// contracts; broker-specific wiring lives in adapters.
package queue
