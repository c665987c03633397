// Package api implements the HTTP client for the Papri backend.
//
// The Client speaks the backend's REST contract: multipart search initiation,
// status polling, paginated result retrieval, video-edit project and task
// submission, and the authentication status probe. State-changing requests
// carry the CSRF token the backend issues as a cookie; the client primes its
// cookie jar automatically before the first mutating call.
//
// The Client satisfies the transport interfaces declared in internal/tasks,
// so the task controller never depends on HTTP directly.
package api
