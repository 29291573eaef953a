package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/async"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/logging"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/safe"
)

// handleMessages ingests an inbound Bot Framework activity. The channel
// expects a fast 200; the actual turn runs asynchronously after the response
// is committed.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var activity model.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		logging.From(r.Context()).Warn("failed to decode inbound activity",
			"error", err.Error())
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	defer safe.Close(r.Context(), r.Body)

	async.Dispatch(r.Context(), func(ctx context.Context) error {
		if err := s.uc.HandleActivity(ctx, &activity); err != nil {
			return goerr.Wrap(err, "failed to handle activity",
				goerr.V("activityID", activity.ID),
				goerr.V("type", activity.Type),
			)
		}
		return nil
	})

	w.WriteHeader(http.StatusOK)
}
