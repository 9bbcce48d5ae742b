// Package memory implements the process-wide dual-tier memory store shared
// by agents, pools and the workflow: a short-term tier with per-entry TTL
// (expiry evaluated lazily at read time) and a long-term tier of categorized,
// searchable key/value entries that live for the process lifetime.
package memory
