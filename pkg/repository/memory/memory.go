package memory

import (
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-memory repository backend used for development and tests
type Memory struct {
	userContext *userContextRepository
	task        *taskRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		userContext: newUserContextRepository(),
		task:        newTaskRepository(),
	}
}

func (m *Memory) UserContext() interfaces.UserContextRepository {
	return m.userContext
}

func (m *Memory) Task() interfaces.TaskRepository {
	return m.task
}

func (m *Memory) Close() error {
	return nil
}
