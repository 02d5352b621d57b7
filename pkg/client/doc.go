// Package client prepares view models through a remote kgview API, falling
// back to a local build when the service is unreachable or rejects the
// payload.
//
// The flow mirrors what the browser viewer does with an uploaded file:
//
//  1. A payload that is already a view model is used as is.
//  2. Otherwise the payload is sanitized (cluster fields rewritten as plain
//     objects) and POSTed to <base>/api/graph/view. Network failures and 5xx
//     responses are retried with exponential backoff.
//  3. Any remote failure falls back to [pipeline.Runner.Build]. The remote
//     error is kept in [Prepared.RemoteErr] for diagnostics.
//
// Only INVALID_PAYLOAD from the local build is returned as an error.
package client
