package cli

import (
	"github.com/upshift-tools/upshift/pkg/auth"
	"github.com/upshift-tools/upshift/pkg/client"
	"github.com/upshift-tools/upshift/pkg/config"
	"github.com/upshift-tools/upshift/pkg/history"
)

// activeProfile loads the profile selected by the global --profile flag
func activeProfile() (*config.Profile, error) {
	return config.LoadProfile(profileName)
}

func newTokenManager(profile *config.Profile) (*auth.TokenManager, error) {
	dir, err := profile.CredentialsDir()
	if err != nil {
		return nil, err
	}
	return auth.NewTokenManager(profile.IssuerURL, profile.GetClientID(), dir), nil
}

// newClient builds an API client backed by the profile's cached session
func newClient(profile *config.Profile) (*client.Client, error) {
	tokens, err := newTokenManager(profile)
	if err != nil {
		return nil, err
	}
	return client.New(profile.APIEndpoint, tokens), nil
}

func openHistory(profile *config.Profile) (*history.Store, error) {
	path, err := profile.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}
