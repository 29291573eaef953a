package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type userContextRepository struct {
	mu    sync.RWMutex
	users map[types.UserID]*model.UserContext
}

func newUserContextRepository() *userContextRepository {
	return &userContextRepository{
		users: make(map[types.UserID]*model.UserContext),
	}
}

// Get retrieves a single user context by ID
func (r *userContextRepository) Get(ctx context.Context, userID types.UserID) (*model.UserContext, error) {
	if err := userID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user ID")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	uc, ok := r.users[userID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "user context not found", goerr.V("userID", userID))
	}

	// Return a deep copy to prevent external modifications
	return uc.Clone(), nil
}

// Put upserts a user context (last-write-wins)
func (r *userContextRepository) Put(ctx context.Context, uc *model.UserContext) error {
	if uc == nil {
		return goerr.New("user context is nil")
	}
	if err := uc.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a deep copy to prevent external modifications
	r.users[uc.UserID] = uc.Clone()
	return nil
}

// List retrieves all stored user contexts
func (r *userContextRepository) List(ctx context.Context) ([]*model.UserContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.UserContext, 0, len(r.users))
	for _, uc := range r.users {
		result = append(result, uc.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})

	return result, nil
}
