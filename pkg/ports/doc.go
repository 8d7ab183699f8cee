/*
Package ports defines the driven ports (interfaces) of the bot core.

These interfaces decouple the dialog machine from external
implementations, allowing it to work with different session stores,
commerce backends and messaging transports.

# Key Interfaces

  - Commerce: catalog, cart and checkout calls against the commerce backend.
  - SessionStore: persisting and loading per-user Sessions.
  - DistributedLocker: cross-replica locking for session access.
  - Dispatcher: sending rendered replies back to the user.
*/
package ports
