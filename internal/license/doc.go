// Package license implements the entitlement check consulted when an edited
// image is exported.
//
// A Manager is an explicit object owned by the caller; there is no package
// state. It validates keys through a Validator (HTTPValidator talks to the
// license-key service), and caches successful validations in a Store
// according to a Policy: entries older than Policy.TTL are dropped, and with
// Policy.OfflineFallback a cached validation of the same key is accepted
// while the service is unreachable.
//
// Stores are in memory (MemoryStore) or in a SQLite file (SQLiteStore,
// using the pure-Go modernc.org/sqlite driver).
//
// Failures are *Error values carrying one of the Code* constants.
package license
