// Package http implements the HTTP/JSON transport for the dispatch service.
//
// It adapts JSON requests to domain calls and exposes a gin router that
// delegates to a provided business-service interface. Callers authenticate
// with HMAC-signed bearer tokens; role checks themselves live in the domain
// layer, the transport only establishes who is calling.
package http
