package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const userContextsCollection = "user_contexts"

type userContextRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newUserContextRepository(client *firestore.Client) *userContextRepository {
	return &userContextRepository{
		client: client,
	}
}

// referenceDoc is the Firestore persistence model of a conversation reference
type referenceDoc struct {
	ActivityID       string `firestore:"activity_id"`
	ChannelID        string `firestore:"channel_id"`
	ServiceURL       string `firestore:"service_url"`
	ConversationID   string `firestore:"conversation_id"`
	ConversationType string `firestore:"conversation_type"`
	TenantID         string `firestore:"tenant_id"`
	BotID            string `firestore:"bot_id"`
	BotName          string `firestore:"bot_name"`
	UserID           string `firestore:"user_id"`
	UserName         string `firestore:"user_name"`
	UserAADObjectID  string `firestore:"user_aad_object_id"`
}

// userContextDoc is the Firestore persistence model
type userContextDoc struct {
	UserID             string        `firestore:"user_id"`
	Reference          *referenceDoc `firestore:"reference"`
	UserName           string        `firestore:"user_name"`
	ChannelID          string        `firestore:"channel_id"`
	ServiceURL         string        `firestore:"service_url"`
	TenantID           string        `firestore:"tenant_id"`
	AADObjectID        string        `firestore:"aad_object_id"`
	TokenStatus        string        `firestore:"token_status"`
	LastTokenRetrieved time.Time     `firestore:"last_token_retrieved"`
	LastTokenAttempt   time.Time     `firestore:"last_token_attempt"`
	CreatedAt          time.Time     `firestore:"created_at"`
	LastUpdated        time.Time     `firestore:"last_updated"`
}

func (r *userContextRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + userContextsCollection)
	}
	return r.client.Collection(userContextsCollection)
}

func toReferenceDoc(ref *model.ConversationReference) *referenceDoc {
	if ref == nil {
		return nil
	}
	return &referenceDoc{
		ActivityID:       ref.ActivityID,
		ChannelID:        ref.ChannelID,
		ServiceURL:       ref.ServiceURL,
		ConversationID:   ref.Conversation.ID,
		ConversationType: ref.Conversation.ConversationType,
		TenantID:         ref.Conversation.TenantID,
		BotID:            ref.Bot.ID,
		BotName:          ref.Bot.Name,
		UserID:           ref.User.ID,
		UserName:         ref.User.Name,
		UserAADObjectID:  ref.User.AADObjectID,
	}
}

func fromReferenceDoc(doc *referenceDoc) *model.ConversationReference {
	if doc == nil {
		return nil
	}
	return &model.ConversationReference{
		ActivityID: doc.ActivityID,
		ChannelID:  doc.ChannelID,
		ServiceURL: doc.ServiceURL,
		Conversation: model.ConversationAccount{
			ID:               doc.ConversationID,
			ConversationType: doc.ConversationType,
			TenantID:         doc.TenantID,
		},
		Bot:  model.ChannelAccount{ID: doc.BotID, Name: doc.BotName},
		User: model.ChannelAccount{ID: doc.UserID, Name: doc.UserName, AADObjectID: doc.UserAADObjectID},
	}
}

func toUserContextDoc(uc *model.UserContext) *userContextDoc {
	return &userContextDoc{
		UserID:             string(uc.UserID),
		Reference:          toReferenceDoc(uc.ConversationReference),
		UserName:           uc.UserName,
		ChannelID:          uc.ChannelID,
		ServiceURL:         uc.ServiceURL,
		TenantID:           uc.TenantID,
		AADObjectID:        uc.AADObjectID,
		TokenStatus:        uc.TokenStatus.String(),
		LastTokenRetrieved: uc.LastTokenRetrieved,
		LastTokenAttempt:   uc.LastTokenAttempt,
		CreatedAt:          uc.CreatedAt,
		LastUpdated:        uc.LastUpdated,
	}
}

func fromUserContextDoc(doc *userContextDoc) *model.UserContext {
	return &model.UserContext{
		UserID:                types.UserID(doc.UserID),
		ConversationReference: fromReferenceDoc(doc.Reference),
		UserName:              doc.UserName,
		ChannelID:             doc.ChannelID,
		ServiceURL:            doc.ServiceURL,
		TenantID:              doc.TenantID,
		AADObjectID:           doc.AADObjectID,
		TokenStatus:           types.TokenStatus(doc.TokenStatus),
		LastTokenRetrieved:    doc.LastTokenRetrieved,
		LastTokenAttempt:      doc.LastTokenAttempt,
		CreatedAt:             doc.CreatedAt,
		LastUpdated:           doc.LastUpdated,
	}
}

// Get retrieves a single user context by ID
func (r *userContextRepository) Get(ctx context.Context, userID types.UserID) (*model.UserContext, error) {
	if err := userID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user ID")
	}

	doc, err := r.collection().Doc(userID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user context not found", goerr.V("userID", userID))
		}
		return nil, goerr.Wrap(err, "failed to get user context", goerr.V("userID", userID))
	}

	var ucDoc userContextDoc
	if err := doc.DataTo(&ucDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user context", goerr.V("docID", doc.Ref.ID))
	}

	return fromUserContextDoc(&ucDoc), nil
}

// Put upserts a user context (last-write-wins)
func (r *userContextRepository) Put(ctx context.Context, uc *model.UserContext) error {
	if uc == nil {
		return goerr.New("user context is nil")
	}
	if err := uc.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user ID")
	}

	docRef := r.collection().Doc(uc.UserID.String())
	if _, err := docRef.Set(ctx, toUserContextDoc(uc)); err != nil {
		return goerr.Wrap(err, "failed to put user context", goerr.V("userID", uc.UserID))
	}

	return nil
}

// List retrieves all stored user contexts
func (r *userContextRepository) List(ctx context.Context) ([]*model.UserContext, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var result []*model.UserContext
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate user contexts")
		}

		var ucDoc userContextDoc
		if err := doc.DataTo(&ucDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal user context", goerr.V("docID", doc.Ref.ID))
		}

		result = append(result, fromUserContextDoc(&ucDoc))
	}

	return result, nil
}
