/*
Package session keeps one live state container per user session.

The Manager loads a session from a ports.StateStore, runs it as a regions.Store
and writes every change back. Writes to one session are serialized with a
local lock and, when configured, a distributed lock so several replicas can
share a Redis store.
*/
package session
