package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/xtrntr/ligabets/internal/auth"
	"github.com/xtrntr/ligabets/internal/hub"
	"github.com/xtrntr/ligabets/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
	dateLayout             = "2006-01-02"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Ledger      *ledger.Ledger
	AuthService *auth.AuthService
	Hub         *hub.Hub
	validate    *validator.Validate
}

// NewHandler creates a new handler
func NewHandler(l *ledger.Ledger, authService *auth.AuthService, h *hub.Hub) *Handler {
	return &Handler{
		Ledger:      l,
		AuthService: authService,
		Hub:         h,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// LeaderboardEntry is the public view of a ranked user
type LeaderboardEntry struct {
	Rank     int             `json:"rank"`
	Username string          `json:"username"`
	Tokens   decimal.Decimal `json:"tokens"`
}

// LeaderboardMessage builds the hub message carrying the top users
func (h *Handler) LeaderboardMessage() hub.Message {
	return hub.Message{Type: hub.TypeLeaderboard, Data: h.leaderboard(defaultLeaderboardSize)}
}

func (h *Handler) leaderboard(topN int) []LeaderboardEntry {
	users := h.Ledger.Leaderboard(topN)
	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{Rank: i + 1, Username: u.Username, Tokens: u.Tokens}
	}
	return entries
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username     string `json:"username" validate:"required,max=50"`
		Email        string `json:"email" validate:"required,email"`
		Password     string `json:"password" validate:"required,max=100"`
		ReferralCode string `json:"referral_code"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.AuthService.Register(req.Username, req.Email, req.Password, req.ReferralCode)
	if err != nil {
		h.writeLedgerError(w, err, "Failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
	h.Hub.Broadcast(h.LeaderboardMessage())
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	token, user, err := h.AuthService.Login(req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password look the same to the client
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Errorf("Login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user's profile and referrals
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.Ledger.User(claims.Username)
	if err != nil {
		h.writeLedgerError(w, err, "Failed to retrieve user")
		return
	}
	referrals, err := h.Ledger.Referrals(claims.Username)
	if err != nil {
		h.writeLedgerError(w, err, "Failed to retrieve referrals")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":      user,
		"referrals": referrals,
	})
}

// GetUserBets retrieves the authenticated user's bets
func (h *Handler) GetUserBets(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bets, err := h.Ledger.BetsByUser(claims.Username)
	if err != nil {
		h.writeLedgerError(w, err, "Failed to retrieve bets")
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

// GetLeaderboard returns the top users by balance
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	topN := defaultLeaderboardSize
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLeaderboardSize {
			writeError(w, http.StatusBadRequest, "top must be between 1 and 100")
			return
		}
		topN = n
	}
	writeJSON(w, http.StatusOK, h.leaderboard(topN))
}

// GetMatches lists matches, optionally only those open for betting
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("open") == "true" {
		writeJSON(w, http.StatusOK, h.Ledger.OpenMatches())
		return
	}
	writeJSON(w, http.StatusOK, h.Ledger.Matches())
}

// GetMatch retrieves a single match with its bets
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.Ledger.Match(chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err, "Failed to retrieve match")
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// CreateMatch handles match creation by the admin
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Team1 string `json:"team1" validate:"required"`
		Team2 string `json:"team2" validate:"required,nefield=Team1"`
		Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	match, err := h.Ledger.CreateMatch(req.Team1, req.Team2, date)
	if err != nil {
		h.writeLedgerError(w, err, "Failed to create match")
		return
	}

	writeJSON(w, http.StatusCreated, match)
	h.Hub.Broadcast(hub.Message{Type: hub.TypeMatch, Data: match})
}

// PlaceBet handles wager placement on an open match
func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Amount     decimal.Decimal `json:"amount"`
		Prediction string          `json:"prediction" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	matchID := chi.URLParam(r, "id")
	bet, err := h.Ledger.PlaceBet(matchID, claims.Username, req.Amount, req.Prediction)
	if err != nil {
		h.writeLedgerError(w, err, "Failed to place bet")
		return
	}

	writeJSON(w, http.StatusCreated, bet)
	if match, err := h.Ledger.Match(matchID); err == nil {
		h.Hub.Broadcast(hub.Message{Type: hub.TypeMatch, Data: match})
	}
	h.Hub.Broadcast(h.LeaderboardMessage())
}

// SettleMatch records a match result and distributes tokens
func (h *Handler) SettleMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Result string `json:"result" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	matchID := chi.URLParam(r, "id")
	settlement, err := h.Ledger.Settle(matchID, req.Result)
	if err != nil {
		h.writeLedgerError(w, err, "Failed to settle match")
		return
	}

	writeJSON(w, http.StatusOK, settlement)
	if match, err := h.Ledger.Match(matchID); err == nil {
		h.Hub.Broadcast(hub.Message{Type: hub.TypeMatch, Data: match})
	}
	h.Hub.Broadcast(h.LeaderboardMessage())
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field() + " failed on " + fe.Tag()
	}
	return "Invalid request body"
}

// statusFor maps ledger errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateUser),
		errors.Is(err, ledger.ErrMatchClosed),
		errors.Is(err, ledger.ErrAlreadySettled):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidResult),
		errors.Is(err, ledger.ErrInvalidPrediction),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeLedgerError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorf("%s: %v", fallback, err)
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
