// Package papi provides a lightweight session client for the OneFS Platform
// API (PAPI) exposed by a storage cluster. The client authenticates once
// against the session endpoint, keeps the issued session cookie and CSRF
// token, and relays GET/PUT/POST/HEAD/DELETE calls against arbitrary API
// paths. Every exchange is normalized into a Response carrying the status
// code, headers, and the JSON-decoded body (or the raw text when the payload
// is not JSON). Failures surface as *ConnectionError for transport problems
// and *HTTPError for non-2xx responses; a 401 on any call drops the session
// so the next call re-authenticates transparently.
//
// Session authentication binds the client to a single node, so point it at a
// node address rather than a load-balanced cluster name. A Client is safe
// for concurrent use, but callers should serialize calls per instance:
// concurrent calls that each observe an expired session will each
// re-authenticate.
package papi
