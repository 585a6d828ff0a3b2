// Package notion projects knowledge-base entries into a Notion database.
//
// Transport wraps net/http with retry, backoff and pacing. Client builds
// on it to implement driven.RemoteStore against the Notion REST API.
package notion
