// Package domain contains the core types of the fishmonger bot:
// sessions, catalog and cart data, inbound dialog events, and the
// replies rendered back to the user.
//
// The package depends on nothing outside the standard library so that
// adapters and the dialog engine can share it freely.
package domain
