// Package api provides an HTTP client for the tracking service API.
//
// # Overview
//
// This package defines the API client for communicating with the remote
// tracking service. It handles HTTP communication, JSON serialization,
// bearer-token authentication, and type-safe representation of scan
// records, accounts, and admin resources.
//
// # Architecture
//
// The package is split into three files:
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the tracking API schema
//   - error.go: The typed error every failed call returns
//
// # Error Model
//
// Every failing operation returns *Error. A transport failure (no HTTP
// response at all) carries Status 0, while a rejected request carries
// the HTTP status and a message extracted from the server's detail or
// message field. Callers branch on the two classes with IsTransport:
//
//	reply, err := client.SubmitRecord(ctx, token, record)
//	if api.IsTransport(err) {
//		// service unreachable: park the record in the offline queue
//	}
//
// # Timeouts
//
// Each call bounds itself with a context deadline: 5s for the liveness
// probe, 10s for data operations, 15s for the auth endpoints. There is
// no mid-flight cancellation beyond the deadline.
package api
