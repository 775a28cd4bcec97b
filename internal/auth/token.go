// Package auth exchanges France Travail client credentials for bearer tokens.
package auth

import (
	"context"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/justsurfingit/job-market-sync/internal/errors"
	"github.com/justsurfingit/job-market-sync/internal/metrics"
)

const (
	EnvClientID     = "FRANCE_TRAVAIL_CLIENT_ID"
	EnvClientSecret = "FRANCE_TRAVAIL_CLIENT_SECRET"
	EnvScope        = "FRANCE_TRAVAIL_SCOPE"
)

// Credentials are the three values the token endpoint needs.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Scope        string
}

func (c Credentials) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Scope != ""
}

// CredentialsFunc is called on every exchange.
type CredentialsFunc func() Credentials

// EnvCredentials reads the credentials from the process environment.
func EnvCredentials() Credentials {
	return Credentials{
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		Scope:        os.Getenv(EnvScope),
	}
}

// TokenSource is what the posting fetcher depends on.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenProvider performs a fresh client-credentials exchange on every call.
// Nothing is cached.
type TokenProvider struct {
	tokenURL    string
	client      *http.Client
	credentials CredentialsFunc
	logger      *zap.Logger
}

// NewTokenProvider returns a provider posting to tokenURL with client.
// A nil credentials func falls back to EnvCredentials.
func NewTokenProvider(tokenURL string, client *http.Client, credentials CredentialsFunc, logger *zap.Logger) *TokenProvider {
	if credentials == nil {
		credentials = EnvCredentials
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenProvider{
		tokenURL:    tokenURL,
		client:      client,
		credentials: credentials,
		logger:      logger.Named("token"),
	}
}

// Token returns an access token or an UNAUTHORIZED error. Missing
// credentials fail without any network call.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	creds := p.credentials()
	if !creds.complete() {
		p.logger.Error("missing France Travail credentials",
			zap.Bool("client_id_set", creds.ClientID != ""),
			zap.Bool("client_secret_set", creds.ClientSecret != ""),
			zap.Bool("scope_set", creds.Scope != ""))
		return "", errors.Unauthorized("missing client credentials", nil)
	}

	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     p.tokenURL,
		Scopes:       []string{creds.Scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	start := time.Now()
	tok, err := conf.Token(context.WithValue(ctx, oauth2.HTTPClient, p.client))
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest("token", "error", elapsed)
		if rerr, ok := err.(*oauth2.RetrieveError); ok && rerr.Response != nil {
			p.logger.Error("token exchange rejected",
				zap.Int("status_code", rerr.Response.StatusCode),
				zap.ByteString("body", rerr.Body))
		} else {
			p.logger.Error("token exchange failed", zap.Error(err))
		}
		return "", errors.Unauthorized("token exchange", err)
	}

	metrics.RecordUpstreamRequest("token", "ok", elapsed)
	p.logger.Debug("access token obtained", zap.Time("expiry", tok.Expiry))
	return tok.AccessToken, nil
}
