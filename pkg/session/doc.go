/*
Package session serializes access to wizard sessions.

A Manager wraps a ports.StateStore with per-session mutexes, garbage collected by
reference counting, and an optional ports.DistributedLocker so that replicas
sharing a store do not interleave two submissions of the same wizard.
*/
package session
