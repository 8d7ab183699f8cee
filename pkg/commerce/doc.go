/*
Package commerce implements the HTTP client for the headless commerce
backend (Elastic Path / Moltin API).

The client owns its authentication state: a client-credentials token is
fetched lazily, cached until shortly before expiry, and refreshed once
when the backend answers 401. Transient network failures are retried
once; after that every operation surfaces domain.ErrCommerceUnavailable.
*/
package commerce
