/*
Package session implements session management and persistence orchestration.

It serializes access to each user's session with in-process reference
counted locks, optionally backed by a distributed locker for
multi-replica deployments, and degrades to a fresh default session when
the store is unavailable so that a store outage never blocks message
processing.
*/
package session
