package misoca

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// TokenPair is the result of a token grant. The refresh token replaces the
// one presented; the access token is short-lived and never stored.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthCodeURL is the consent page the user visits to connect an account.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ExchangeCode redeems an authorization code.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, tokenError("exchange code", err)
	}
	return toPair(tok)
}

// RefreshTokens runs the refresh_token grant. The presented refresh token is
// invalid afterwards. The form is posted directly because Misoca expects
// redirect_uri on this grant too, which oauth2.TokenSource does not send.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"redirect_uri":  {c.oauth.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("misoca refresh tokens: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	b, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return nil, fmt.Errorf("misoca refresh tokens: decode response: %w", err)
	}
	return toPair(&oauth2.Token{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken})
}

func toPair(tok *oauth2.Token) (*TokenPair, error) {
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return nil, errors.New("misoca token response is missing a token")
	}
	return &TokenPair{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

func tokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &APIError{
			Method:     "POST",
			Path:       "/oauth2/token",
			StatusCode: re.Response.StatusCode,
			Body:       string(re.Body),
		}
	}
	return fmt.Errorf("misoca %s: %w", op, err)
}
