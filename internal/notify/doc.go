// Package notify delivers text messages to Telegram chats through the Bot
// API. The Client performs a single delivery attempt with classification of
// transient versus permanent failures; the Dispatcher decouples callers from
// network I/O behind a buffered queue and a worker pool with exponential
// backoff retries.
package notify
