// Package webhooks receives payment-provider callbacks: signature
// verification, durable per-event dedupe through the delivery ledger, and
// hand-off into the core payment pipeline. HTTP transport stays outside;
// the processor works on core.InboundRequest.
package webhooks
