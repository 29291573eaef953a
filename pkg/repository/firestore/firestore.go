package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = interfaces.ErrNotFound

// Firestore is the persistent repository backend
type Firestore struct {
	client      *firestore.Client
	userContext *userContextRepository
	task        *taskRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, mainly for tests sharing
// a project
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.userContext.collectionPrefix = prefix
		f.task.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:      client,
		userContext: newUserContextRepository(client),
		task:        newTaskRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) UserContext() interfaces.UserContextRepository {
	return f.userContext
}

func (f *Firestore) Task() interfaces.TaskRepository {
	return f.task
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
