package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const tasksCollection = "scheduled_tasks"

// taskRepository stores the pending task set.
//
// Architecture assumptions (same as the scheduler worker):
// - Single server instance, so the delete pass in PopDue does not race with
//   another process claiming the same documents. Horizontal scaling requires
//   distributed locking or a claim transaction.
type taskRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTaskRepository(client *firestore.Client) *taskRepository {
	return &taskRepository{
		client: client,
	}
}

// taskDoc is the Firestore persistence model
type taskDoc struct {
	ID        string        `firestore:"id"`
	UserID    string        `firestore:"user_id"`
	Reference *referenceDoc `firestore:"reference"`
	TaskType  string        `firestore:"task_type"`
	ExecuteAt time.Time     `firestore:"execute_at"`
	CreatedAt time.Time     `firestore:"created_at"`
}

func (r *taskRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + tasksCollection)
	}
	return r.client.Collection(tasksCollection)
}

func toTaskDoc(task *model.ScheduledTask) *taskDoc {
	return &taskDoc{
		ID:        task.ID.String(),
		UserID:    string(task.UserID),
		Reference: toReferenceDoc(task.ConversationReference),
		TaskType:  task.TaskType.String(),
		ExecuteAt: task.ExecuteAt,
		CreatedAt: task.CreatedAt,
	}
}

func fromTaskDoc(doc *taskDoc) *model.ScheduledTask {
	return &model.ScheduledTask{
		ID:                    types.TaskID(doc.ID),
		UserID:                types.UserID(doc.UserID),
		ConversationReference: fromReferenceDoc(doc.Reference),
		TaskType:              types.TaskType(doc.TaskType),
		ExecuteAt:             doc.ExecuteAt,
		CreatedAt:             doc.CreatedAt,
	}
}

// Put inserts a scheduled task into the pending set
func (r *taskRepository) Put(ctx context.Context, task *model.ScheduledTask) error {
	if task == nil {
		return goerr.New("task is nil")
	}
	if err := task.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid task ID")
	}

	docRef := r.collection().Doc(task.ID.String())
	if _, err := docRef.Create(ctx, toTaskDoc(task)); err != nil {
		return goerr.Wrap(err, "failed to put scheduled task", goerr.V("taskID", task.ID))
	}

	return nil
}

// PopDue queries due tasks and deletes each document before returning it, so
// tasks fire at most once even if the process dies mid-cycle.
func (r *taskRepository) PopDue(ctx context.Context, now time.Time) ([]*model.ScheduledTask, error) {
	iter := r.collection().Where("execute_at", "<=", now).Documents(ctx)
	defer iter.Stop()

	var due []*model.ScheduledTask
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query due tasks")
		}

		var tDoc taskDoc
		if err := doc.DataTo(&tDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal scheduled task", goerr.V("docID", doc.Ref.ID))
		}

		// Remove before execute: if the delete fails the task stays pending
		// and is NOT returned, preserving at-most-once.
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to remove due task", goerr.V("docID", doc.Ref.ID))
		}

		due = append(due, fromTaskDoc(&tDoc))
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].ExecuteAt.Before(due[j].ExecuteAt)
	})

	return due, nil
}

// List retrieves all pending tasks without removing them
func (r *taskRepository) List(ctx context.Context) ([]*model.ScheduledTask, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var result []*model.ScheduledTask
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate scheduled tasks")
		}

		var tDoc taskDoc
		if err := doc.DataTo(&tDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal scheduled task", goerr.V("docID", doc.Ref.ID))
		}

		result = append(result, fromTaskDoc(&tDoc))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ExecuteAt.Before(result[j].ExecuteAt)
	})

	return result, nil
}
