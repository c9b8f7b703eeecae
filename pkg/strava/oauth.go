package strava

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	shared "github.com/peakform/coachrelay/pkg"
)

// Endpoint is Strava's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.strava.com/oauth/authorize",
	TokenURL: "https://www.strava.com/oauth/token",
}

// OAuth performs the authorization-code exchange that creates the initial
// credential record. Refreshes are handled by credentials.Source.
type OAuth struct {
	cfg oauth2.Config
}

func NewOAuth(clientID, clientSecret string) *OAuth {
	return &OAuth{
		cfg: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     Endpoint,
		},
	}
}

// WithTokenURL overrides the token endpoint. Used by tests.
func (o *OAuth) WithTokenURL(u string) *OAuth {
	o.cfg.Endpoint.TokenURL = u
	return o
}

// Exchange trades an authorization code for a credential keyed by the
// athlete id Strava embeds in the token response.
func (o *OAuth) Exchange(ctx context.Context, code string) (*shared.Credential, error) {
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	athlete, ok := tok.Extra("athlete").(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("token response missing athlete object")
	}
	rawID, ok := athlete["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("token response missing athlete id")
	}

	return &shared.Credential{
		AthleteID:    int64(rawID),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}
