package api

import (
	"context"
	"net/http"

	"papri/internal/tasks"
)

// AuthStatus probes the backend session. The response also primes the cookie
// jar with the CSRF token, so callers may use it as a connectivity check
// before submitting tasks.
func (c *Client) AuthStatus(ctx context.Context) (AuthStatus, error) {
	endpoint, err := c.endpoint("auth", "status")
	if err != nil {
		return AuthStatus{}, tasks.Wrap(tasks.ErrFetch, "", "auth", "", err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return AuthStatus{}, tasks.Wrap(tasks.ErrFetch, "", "auth", "", err)
	}
	var status AuthStatus
	if err := c.doJSON(req, "", "auth", &status); err != nil {
		return AuthStatus{}, err
	}
	return status, nil
}
