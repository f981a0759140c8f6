package meta

import (
	"context"
	"fmt"
	"net/url"
)

// TokenStatus is the result of a debug_token introspection call. It is
// computed on demand and never cached; the dashboard uses it to prompt for
// re-auth when the long-lived token expires.
type TokenStatus struct {
	IsValid   bool     `json:"is_valid"`
	AppID     string   `json:"app_id"`
	Type      string   `json:"type"`
	Scopes    []string `json:"scopes"`
	ExpiresAt *int64   `json:"expires_at"`
	Error     *string  `json:"error"`
}

type debugTokenEnvelope struct {
	Data struct {
		IsValid   bool     `json:"is_valid"`
		AppID     string   `json:"app_id"`
		Type      string   `json:"type"`
		Scopes    []string `json:"scopes"`
		ExpiresAt int64    `json:"expires_at"`
		Error     *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"data"`
	Error *graphError `json:"error,omitempty"`
}

// TokenStatus introspects the configured access token.
func (c *Client) TokenStatus(ctx context.Context) (TokenStatus, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return TokenStatus{}, err
	}

	params := url.Values{}
	params.Set("input_token", c.accessToken)
	params.Set("access_token", c.accessToken)

	var envelope debugTokenEnvelope
	u := fmt.Sprintf("%s/debug_token?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, u, &envelope); err != nil {
		return TokenStatus{}, err
	}
	if envelope.Error != nil {
		return TokenStatus{}, envelope.Error.toAPIError()
	}

	out := TokenStatus{
		IsValid: envelope.Data.IsValid,
		AppID:   envelope.Data.AppID,
		Type:    envelope.Data.Type,
		Scopes:  envelope.Data.Scopes,
	}
	if envelope.Data.ExpiresAt > 0 {
		exp := envelope.Data.ExpiresAt
		out.ExpiresAt = &exp
	}
	if envelope.Data.Error != nil {
		msg := envelope.Data.Error.Message
		out.Error = &msg
	}
	return out, nil
}
