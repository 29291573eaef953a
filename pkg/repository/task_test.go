package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/repository/firestore"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/repository/memory"
)

func newTaskRef(userID string) *model.ConversationReference {
	return &model.ConversationReference{
		ChannelID:    "msteams",
		ServiceURL:   "https://smba.trafficmanager.net/amer/",
		Conversation: model.ConversationAccount{ID: "conv-" + userID},
		Bot:          model.ChannelAccount{ID: "bot-1"},
		User:         model.ChannelAccount{ID: userID},
	}
}

func runTaskRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("PopDue leaves future tasks pending", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		task := model.NewScheduledTask("U100", newTaskRef("U100"), types.TaskTypeCalendarCheck, time.Hour)
		gt.NoError(t, repo.Task().Put(ctx, task)).Required()

		due, err := repo.Task().PopDue(ctx, time.Now().UTC())
		gt.NoError(t, err).Required()
		gt.Array(t, due).Length(0)

		pending, err := repo.Task().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(1)
	})

	t.Run("PopDue removes due tasks before returning them", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		task := model.NewScheduledTask("U200", newTaskRef("U200"), types.TaskTypeCalendarCheck, time.Minute)
		gt.NoError(t, repo.Task().Put(ctx, task)).Required()

		due, err := repo.Task().PopDue(ctx, time.Now().UTC().Add(2*time.Minute))
		gt.NoError(t, err).Required()
		gt.Array(t, due).Length(1)
		gt.Value(t, due[0].ID).Equal(task.ID)

		// The pending set must already be empty, regardless of whether the
		// task's execution later succeeds
		pending, err := repo.Task().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(0)
	})

	t.Run("PopDue returns each task at most once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		task := model.NewScheduledTask("U300", newTaskRef("U300"), types.TaskTypeCalendarCheck, 0)
		gt.NoError(t, repo.Task().Put(ctx, task)).Required()

		later := time.Now().UTC().Add(time.Second)
		first, err := repo.Task().PopDue(ctx, later)
		gt.NoError(t, err).Required()
		gt.Array(t, first).Length(1)

		second, err := repo.Task().PopDue(ctx, later)
		gt.NoError(t, err).Required()
		gt.Array(t, second).Length(0)
	})

	t.Run("PopDue returns tasks ordered by ExecuteAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		late := model.NewScheduledTask("U401", newTaskRef("U401"), types.TaskTypeCalendarCheck, 30*time.Minute)
		early := model.NewScheduledTask("U402", newTaskRef("U402"), types.TaskTypeCalendarCheck, 10*time.Minute)
		gt.NoError(t, repo.Task().Put(ctx, late)).Required()
		gt.NoError(t, repo.Task().Put(ctx, early)).Required()

		due, err := repo.Task().PopDue(ctx, time.Now().UTC().Add(time.Hour))
		gt.NoError(t, err).Required()
		gt.Array(t, due).Length(2)
		gt.Value(t, due[0].ID).Equal(early.ID)
		gt.Value(t, due[1].ID).Equal(late.ID)
	})

	t.Run("stored reference is independent of caller's copy", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		ref := newTaskRef("U500")
		task := model.NewScheduledTask("U500", ref, types.TaskTypeCalendarCheck, time.Minute)
		gt.NoError(t, repo.Task().Put(ctx, task)).Required()

		ref.Conversation.ID = "mutated"

		pending, err := repo.Task().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(1)
		gt.Value(t, pending[0].ConversationReference.Conversation.ID).Equal("conv-U500")
	})
}

func TestTaskRepository_Memory(t *testing.T) {
	runTaskRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestTaskRepository_Firestore(t *testing.T) {
	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("FIRESTORE_PROJECT_ID not set")
	}

	runTaskRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		repo, err := firestore.New(context.Background(), projectID, "",
			firestore.WithCollectionPrefix("test_"+time.Now().Format("20060102150405")+"_"))
		gt.NoError(t, err).Required()
		return repo
	})
}
