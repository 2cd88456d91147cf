// Package base contains infrastructure packages shared across the protocol
// runtime: error helpers, process spawning, ordered maps, and config loading.
package base
