// Package llm provides an OpenAI-compatible chat client used by the risk
// analyzer. The default endpoint is Groq's chat completions API.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send an optional system prompt plus a user prompt, receive
// the raw text the model produced.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode a model reply that should contain one JSON object.
//
// # Retry Behaviour
//
// By default each request is attempted once. WithRetryMaxAttempts enables
// retries on HTTP 408/429/5xx, empty content, and network timeouts with
// exponential backoff (base 1s, max 10s) honouring Retry-After. Context
// cancellation aborts retries immediately.
//
// # Errors
//
// Failures carry services markers: ErrConfiguration for a missing key or
// model, ErrProvider for HTTP and API errors, ErrTimeout for network
// timeouts, and ErrTransient for other transport failures. Callers map them
// with services.Kind.
package llm
