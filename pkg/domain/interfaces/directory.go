package interfaces

import (
	"context"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
)

// DirectoryClient is the consumed slice of the graph API: profile, calendar
// and photo for the user a bearer token belongs to. Auth and transport errors
// surface to the caller unchanged.
type DirectoryClient interface {
	GetProfile(ctx context.Context) (*model.Profile, error)
	GetEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	GetPhoto(ctx context.Context) ([]byte, error)
}

// DirectoryClientFactory constructs a DirectoryClient from a bearer token
type DirectoryClientFactory func(token string) DirectoryClient
