package usecase

import (
	"context"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
)

// DefaultChannelID is the Teams channel identifier used when an acquisition
// has no stored channel to go on
const DefaultChannelID = "msteams"

// TaskScheduler is the slice of the background scheduler the command surface
// needs. The worker package implements it.
type TaskScheduler interface {
	Schedule(ctx context.Context, userID types.UserID, ref *model.ConversationReference, taskType types.TaskType, delay time.Duration) (types.TaskID, error)
}

// UseCases bundles the bot's business logic
type UseCases struct {
	repo interfaces.Repository

	connectionName string
	taskDelay      time.Duration

	connector        interfaces.Connector
	strategies       []interfaces.TokenStrategy
	directoryFactory interfaces.DirectoryClientFactory
	scheduler        TaskScheduler

	Context   *ContextUseCase
	Token     *TokenUseCase
	Proactive *ProactiveUseCase
}

// Option is a functional option for UseCases
type Option func(*UseCases)

// WithConnector sets the conversation transport
func WithConnector(connector interfaces.Connector) Option {
	return func(uc *UseCases) {
		uc.connector = connector
	}
}

// WithStrategies sets the token acquisition strategies in priority order
func WithStrategies(strategies []interfaces.TokenStrategy) Option {
	return func(uc *UseCases) {
		uc.strategies = strategies
	}
}

// WithDirectoryFactory sets the factory that builds graph clients from
// acquired bearer tokens
func WithDirectoryFactory(factory interfaces.DirectoryClientFactory) Option {
	return func(uc *UseCases) {
		uc.directoryFactory = factory
	}
}

// WithScheduler sets the background task scheduler used by the "schedule
// task" command
func WithScheduler(scheduler TaskScheduler) Option {
	return func(uc *UseCases) {
		uc.scheduler = scheduler
	}
}

// WithConnectionName sets the OAuth connection name configured on the bot
func WithConnectionName(name string) Option {
	return func(uc *UseCases) {
		uc.connectionName = name
	}
}

// WithTaskDelay sets the delay applied by the "schedule task" command
func WithTaskDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.taskDelay = d
	}
}

// SetScheduler attaches the background task scheduler after construction.
// The scheduler depends on the token use case, so it cannot be built before
// the bundle itself.
func (uc *UseCases) SetScheduler(scheduler TaskScheduler) {
	uc.scheduler = scheduler
}

// Directory builds a graph client for the given bearer token, or nil when no
// factory is configured
func (uc *UseCases) Directory(token string) interfaces.DirectoryClient {
	if uc.directoryFactory == nil {
		return nil
	}
	return uc.directoryFactory(token)
}

// New creates the use case bundle
func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		taskDelay: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Context = NewContextUseCase(repo)
	uc.Proactive = NewProactiveUseCase(uc.connector)
	uc.Token = NewTokenUseCase(uc.Context, uc.Proactive, uc.strategies, uc.connectionName)

	return uc
}
