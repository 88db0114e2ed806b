// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-category toggles let operators silence candidate chatter while
// keeping enforcement and error alerts.
//
// Extend this package if you need alternative transports; all pipeline code
// depends only on the simple Service interface.
package notifications
