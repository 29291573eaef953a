package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/errutil"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/safe"
)

// maxBatchSize caps the number of user IDs a single batch request may carry
const maxBatchSize = 50

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

type tokenResponse struct {
	UserID         string     `json:"userId"`
	OK             bool       `json:"ok"`
	Expiration     *time.Time `json:"expiration,omitempty"`
	ConnectionName string     `json:"connectionName,omitempty"`
	ChannelID      string     `json:"channelId,omitempty"`
	ErrorKind      string     `json:"errorKind,omitempty"`
	Message        string     `json:"message,omitempty"`
}

func newTokenResponse(userID types.UserID, result *model.TokenResult) tokenResponse {
	resp := tokenResponse{
		UserID: userID.String(),
		OK:     result.OK(),
	}
	if result.OK() {
		exp := result.Expiration
		resp.Expiration = &exp
		resp.ConnectionName = result.ConnectionName
		resp.ChannelID = result.ChannelID
	} else {
		resp.ErrorKind = result.Kind.String()
		resp.Message = result.Message
	}
	return resp
}

// failureStatus maps structured acquisition failures to HTTP status codes
func failureStatus(kind types.ErrKind) int {
	switch kind {
	case types.ErrKindNoContext:
		return http.StatusNotFound
	case types.ErrKindUnavailable:
		return http.StatusUnauthorized
	case types.ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	s.acquireToken(w, r, false)
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	s.acquireToken(w, r, true)
}

func (s *Server) acquireToken(w http.ResponseWriter, r *http.Request, forceRefresh bool) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	if err := userID.Validate(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	result := s.uc.Token.Acquire(r.Context(), userID, forceRefresh)

	status := http.StatusOK
	if !result.OK() {
		status = failureStatus(result.Kind)
	}
	writeJSON(w, status, newTokenResponse(userID, result))
}

func (s *Server) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	if err := userID.Validate(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	type validateResponse struct {
		UserID string `json:"userId"`
		Valid  bool   `json:"valid"`
		Reason string `json:"reason,omitempty"`
	}

	result := s.uc.Token.Acquire(r.Context(), userID, false)
	if !result.OK() {
		writeJSON(w, http.StatusOK, validateResponse{
			UserID: userID.String(),
			Valid:  false,
			Reason: result.Kind.String(),
		})
		return
	}

	// A token that cannot fetch the owner's profile is not usable
	resp := validateResponse{UserID: userID.String(), Valid: true}
	if dir := s.uc.Directory(result.Token); dir != nil {
		if _, err := dir.GetProfile(r.Context()); err != nil {
			resp.Valid = false
			resp.Reason = "token rejected by directory"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	if err := userID.Validate(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	result := s.uc.Token.Acquire(r.Context(), userID, false)
	if !result.OK() {
		status := failureStatus(result.Kind)
		writeJSON(w, status, newTokenResponse(userID, result))
		return
	}

	dir := s.uc.Directory(result.Token)
	if dir == nil {
		http.Error(w, "Not Implemented", http.StatusNotImplemented)
		return
	}

	profile, err := dir.GetProfile(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to fetch profile",
			goerr.V("userID", userID)), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	if err := userID.Validate(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	userCtx, err := s.uc.Context.Get(r.Context(), userID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to load user context",
			goerr.V("userID", userID)), http.StatusInternalServerError)
		return
	}
	if userCtx == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	type contextResponse struct {
		UserID             string    `json:"userId"`
		UserName           string    `json:"userName"`
		ChannelID          string    `json:"channelId"`
		ServiceURL         string    `json:"serviceUrl"`
		TenantID           string    `json:"tenantId,omitempty"`
		AADObjectID        string    `json:"aadObjectId,omitempty"`
		TokenStatus        string    `json:"tokenStatus"`
		LastTokenRetrieved time.Time `json:"lastTokenRetrieved,omitempty"`
		LastTokenAttempt   time.Time `json:"lastTokenAttempt,omitempty"`
		CreatedAt          time.Time `json:"createdAt"`
		LastUpdated        time.Time `json:"lastUpdated"`
	}

	writeJSON(w, http.StatusOK, contextResponse{
		UserID:             userCtx.UserID.String(),
		UserName:           userCtx.UserName,
		ChannelID:          userCtx.ChannelID,
		ServiceURL:         userCtx.ServiceURL,
		TenantID:           userCtx.TenantID,
		AADObjectID:        userCtx.AADObjectID,
		TokenStatus:        userCtx.TokenStatus.String(),
		LastTokenRetrieved: userCtx.LastTokenRetrieved,
		LastTokenAttempt:   userCtx.LastTokenAttempt,
		CreatedAt:          userCtx.CreatedAt,
		LastUpdated:        userCtx.LastUpdated,
	})
}

type batchRequest struct {
	UserIDs []string `json:"userIds"`
}

type batchResponse struct {
	Results      []tokenResponse `json:"results"`
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
}

// handleBatchTokens acquires tokens for up to maxBatchSize users. Each user
// is acquired independently; one failure never aborts the batch, and the
// result order matches the request order.
func (s *Server) handleBatchTokens(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	defer safe.Close(r.Context(), r.Body)

	if len(req.UserIDs) == 0 {
		http.Error(w, "userIds must not be empty", http.StatusBadRequest)
		return
	}
	if len(req.UserIDs) > maxBatchSize {
		http.Error(w, "too many userIds in one batch", http.StatusBadRequest)
		return
	}

	results := make([]tokenResponse, len(req.UserIDs))

	var eg errgroup.Group
	for i, raw := range req.UserIDs {
		eg.Go(func() error {
			userID := types.UserID(raw)
			if err := userID.Validate(); err != nil {
				results[i] = tokenResponse{
					UserID:    raw,
					OK:        false,
					ErrorKind: types.ErrKindNoContext.String(),
					Message:   "invalid user ID",
				}
				return nil
			}
			results[i] = newTokenResponse(userID, s.uc.Token.Acquire(r.Context(), userID, false))
			return nil
		})
	}
	eg.Wait() //nolint:errcheck // workers never return errors

	resp := batchResponse{Results: results}
	for _, res := range results {
		if res.OK {
			resp.SuccessCount++
		} else {
			resp.FailureCount++
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
