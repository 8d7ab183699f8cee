package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// refreshWindow is how long before expiry a cached token is considered
// stale and re-fetched.
const refreshWindow = 60 * time.Second

// tokenSource fetches and caches a client-credentials access token.
// Safe for concurrent use.
type tokenSource struct {
	httpc        *http.Client
	tokenURL     string
	clientID     string
	clientSecret string

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time // injectable for tests
}

func newTokenSource(httpc *http.Client, baseURL, clientID, clientSecret string) *tokenSource {
	return &tokenSource{
		httpc:        httpc,
		tokenURL:     strings.TrimRight(baseURL, "/") + "/oauth/access_token",
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

// Token returns a valid access token, fetching a fresh one when the
// cache is empty or inside the refresh window.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Add(refreshWindow).Before(t.expiry) {
		return t.token, nil
	}
	return t.fetchLocked(ctx)
}

// Invalidate drops the cached token if it is still the given one, so a
// 401 observed by one caller does not discard a newer token fetched by
// another.
func (t *tokenSource) Invalidate(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token == token {
		t.token = ""
	}
}

func (t *tokenSource) fetchLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %s", resp.Status)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access_token")
	}

	t.token = body.AccessToken
	t.expiry = t.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return t.token, nil
}
