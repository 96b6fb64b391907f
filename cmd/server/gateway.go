package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/teamproxima/proxima/internal/security"
	"github.com/teamproxima/proxima/internal/services"
	"github.com/teamproxima/proxima/pkg/errors"
	"github.com/teamproxima/proxima/pkg/logger"
)

// Gateway is the thin JSON framing over the service layer. It owns nothing
// but request decoding, caller identity extraction and error-code mapping;
// all semantics live in internal/services.
type Gateway struct {
	friends   *services.FriendService
	users     *services.UserService
	jwtSecret string
	server    *http.Server
}

func NewGateway(friends *services.FriendService, users *services.UserService, jwtSecret string) *Gateway {
	return &Gateway{
		friends:   friends,
		users:     users,
		jwtSecret: jwtSecret,
	}
}

func (g *Gateway) Start(port string) error {
	r := mux.NewRouter()

	r.HandleFunc("/v1/friends/token", g.authed(g.handleIssueToken)).Methods(http.MethodPost)
	r.HandleFunc("/v1/friends/token", g.authed(g.handleRevokeToken)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/friends/discover", g.authed(g.handleDiscover)).Methods(http.MethodPost)
	r.HandleFunc("/v1/friends/match", g.authed(g.handleMatchContacts)).Methods(http.MethodPost)
	r.HandleFunc("/v1/friends/requests", g.authed(g.handleRequestFriend)).Methods(http.MethodPost)
	r.HandleFunc("/v1/friends/requests", g.authed(g.handlePendingRequests)).Methods(http.MethodGet)
	r.HandleFunc("/v1/friends/accept", g.authed(g.handleAcceptFriend)).Methods(http.MethodPost)
	r.HandleFunc("/v1/friends", g.authed(g.handleAddFriend)).Methods(http.MethodPost)
	r.HandleFunc("/v1/friends", g.authed(g.handleListFriends)).Methods(http.MethodGet)
	r.HandleFunc("/v1/friends/{userID}", g.authed(g.handleDeleteFriend)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/users/me", g.authed(g.handleUpdateProfile)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/users/me", g.authed(g.handleWithdraw)).Methods(http.MethodDelete)

	g.server = &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Gateway stopped unexpectedly", "error", err)
		}
	}()

	return nil
}

func (g *Gateway) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := g.server.Shutdown(ctx); err != nil {
		logger.Warn("Gateway shutdown incomplete", "error", err)
	}
}

// authed resolves the caller from the bearer token before invoking h
func (g *Gateway) authed(h func(w http.ResponseWriter, r *http.Request, callerID uint)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, errors.New(errors.ErrCodeUnauthorized, "missing bearer token"))
			return
		}

		claims, err := security.ValidateJWT(strings.TrimPrefix(header, "Bearer "), g.jwtSecret)
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeUnauthorized, "invalid access token"))
			return
		}

		h(w, r, claims.UserID)
	}
}

func (g *Gateway) handleIssueToken(w http.ResponseWriter, r *http.Request, callerID uint) {
	token, err := g.friends.IssueDiscoveryToken(callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"discovery_token": token})
}

func (g *Gateway) handleRevokeToken(w http.ResponseWriter, r *http.Request, callerID uint) {
	if err := g.friends.RevokeDiscoveryToken(callerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleDiscover(w http.ResponseWriter, r *http.Request, callerID uint) {
	var body struct {
		Tokens []string `json:"tokens"`
	}
	if !decode(w, r, &body) {
		return
	}

	discovered, err := g.friends.FindUsersByTokens(callerID, body.Tokens)
	if err != nil {
		writeError(w, err)
		return
	}

	type discoveredUser struct {
		ID         uint   `json:"id"`
		Nickname   string `json:"nickname"`
		Bio        string `json:"bio"`
		ProfileURL string `json:"profile_url"`
		Status     string `json:"friendship_status"`
	}
	out := make([]discoveredUser, 0, len(discovered))
	for _, d := range discovered {
		out = append(out, discoveredUser{
			ID:         d.User.ID,
			Nickname:   d.User.Nickname,
			Bio:        d.User.Bio,
			ProfileURL: d.User.ProfileURL,
			Status:     string(d.Status),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleMatchContacts(w http.ResponseWriter, r *http.Request, callerID uint) {
	var body struct {
		PhoneNumbers []string `json:"phone_numbers"`
	}
	if !decode(w, r, &body) {
		return
	}

	matched, err := g.friends.MatchContacts(callerID, body.PhoneNumbers)
	if err != nil {
		writeError(w, err)
		return
	}

	type matchedUser struct {
		ID         uint   `json:"id"`
		Nickname   string `json:"nickname"`
		ProfileURL string `json:"profile_url"`
	}
	out := make([]matchedUser, 0, len(matched))
	for _, u := range matched {
		out = append(out, matchedUser{ID: u.ID, Nickname: u.Nickname, ProfileURL: u.ProfileURL})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleRequestFriend(w http.ResponseWriter, r *http.Request, callerID uint) {
	var body struct {
		TargetToken string `json:"target_token"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := g.friends.RequestFriend(callerID, body.TargetToken); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (g *Gateway) handlePendingRequests(w http.ResponseWriter, r *http.Request, callerID uint) {
	requests, err := g.friends.GetPendingRequests(callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	type pendingRequest struct {
		RequesterID uint      `json:"requester_id"`
		Nickname    string    `json:"nickname"`
		RequestedAt time.Time `json:"requested_at"`
	}
	out := make([]pendingRequest, 0, len(requests))
	for _, req := range requests {
		out = append(out, pendingRequest{
			RequesterID: req.Requester.ID,
			Nickname:    req.Requester.Nickname,
			RequestedAt: req.Friendship.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleAcceptFriend(w http.ResponseWriter, r *http.Request, callerID uint) {
	var body struct {
		RequesterID uint `json:"requester_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := g.friends.AcceptFriend(callerID, body.RequesterID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleAddFriend(w http.ResponseWriter, r *http.Request, callerID uint) {
	var body struct {
		TargetUserID uint `json:"target_user_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := g.friends.AddFriend(callerID, body.TargetUserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (g *Gateway) handleListFriends(w http.ResponseWriter, r *http.Request, callerID uint) {
	friends, err := g.friends.GetFriends(callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	type friend struct {
		ID         uint   `json:"id"`
		Nickname   string `json:"nickname"`
		Bio        string `json:"bio"`
		ProfileURL string `json:"profile_url"`
	}
	out := make([]friend, 0, len(friends))
	for _, u := range friends {
		out = append(out, friend{ID: u.ID, Nickname: u.Nickname, Bio: u.Bio, ProfileURL: u.ProfileURL})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleDeleteFriend(w http.ResponseWriter, r *http.Request, callerID uint) {
	targetID, err := strconv.ParseUint(mux.Vars(r)["userID"], 10, 32)
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeValidationFailed, "invalid user id"))
		return
	}

	if err := g.friends.DeleteFriend(callerID, uint(targetID)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleUpdateProfile(w http.ResponseWriter, r *http.Request, callerID uint) {
	var body struct {
		Nickname string `json:"nickname"`
		Bio      string `json:"bio"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := g.users.UpdateProfile(callerID, body.Nickname, body.Bio); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleWithdraw(w http.ResponseWriter, r *http.Request, callerID uint) {
	if err := g.users.Withdraw(callerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, errors.New(errors.ErrCodeValidationFailed, "invalid request body"))
		return false
	}
	return true
}

var statusByCode = map[string]int{
	errors.ErrCodeValidationFailed: http.StatusBadRequest,
	errors.ErrCodeNotFound:         http.StatusNotFound,
	errors.ErrCodeInvalidTarget:    http.StatusNotFound,
	errors.ErrCodeSelfRequest:      http.StatusBadRequest,
	errors.ErrCodeAlreadyExists:    http.StatusConflict,
	errors.ErrCodeUnauthorized:     http.StatusUnauthorized,
	errors.ErrCodeStorageConflict:  http.StatusConflict,
	errors.ErrCodeEntropyExhausted: http.StatusInternalServerError,
	errors.ErrCodeInternalError:    http.StatusInternalServerError,
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		code = errors.ErrCodeInternalError
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		logger.Error("Request failed", "code", code, "error", err)
	}

	writeJSON(w, status, map[string]string{"code": code})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
