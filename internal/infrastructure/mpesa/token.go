package mpesa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// tokenSource fetches Daraja client-credential tokens. Daraja issues tokens
// on a GET with basic auth, which the clientcredentials flow does not speak.
type tokenSource struct {
	ctx    context.Context
	client *http.Client
	url    string
	key    string
	secret string
	now    func() time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(t.ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(t.key, t.secret)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Provider: provider, Message: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{
			Provider: provider,
			Code:     resp.StatusCode,
			Message:  fmt.Sprintf("authentication failed: %s", http.StatusText(resp.StatusCode)),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, &domain.TransportError{Provider: provider, Message: "no access token received"}
	}

	ttl, err := strconv.Atoi(tr.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3599
	}
	return &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   "Bearer",
		Expiry:      t.now().Add(time.Duration(ttl) * time.Second),
	}, nil
}
