package keycloak

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Logout ends the Keycloak session through the realm's end_session_endpoint and
// clears the local session. The local session is cleared even when Keycloak
// cannot be reached; that failure is still returned.
func (p *Provider) Logout(ctx context.Context) error {
	p.lock.RLock()
	token, endSessionURL := p.token, p.endSessionURL
	p.lock.RUnlock()

	var logoutErr error
	if endSessionURL != "" && token != nil && token.RefreshToken != "" {
		logoutErr = p.endSession(ctx, endSessionURL, token.RefreshToken)
	}

	p.dropSession(ctx)
	return logoutErr
}

func (p *Provider) endSession(ctx context.Context, endSessionURL, refreshToken string) error {
	form := url.Values{}
	form.Set("client_id", p.config.ClientID)
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endSessionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("[keycloak Logout] %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("[keycloak Logout] end session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("[keycloak Logout] end session returned %d", resp.StatusCode)
	}
	return nil
}
