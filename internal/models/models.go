package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Draw is the outcome marker for a match that ends level
const Draw = "draw"

// Role distinguishes regular bettors from the administrator
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered user
type User struct {
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Tokens       decimal.Decimal `json:"tokens"`
	ReferralCode string          `json:"referral_code"`
	ReferralFrom string          `json:"referral_from,omitempty"` // empty when not referred
	Role         Role            `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Match represents a scheduled fixture between two teams
type Match struct {
	ID        string     `json:"id"`
	Team1     string     `json:"team1"`
	Team2     string     `json:"team2"`
	Date      time.Time  `json:"date"`
	Result    string     `json:"result,omitempty"` // team1, team2 or Draw once settled
	Bets      []Bet      `json:"bets"`
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// Settled reports whether a result has been recorded
func (m Match) Settled() bool {
	return m.Result != ""
}

// IsOutcome reports whether s names one of the match's possible outcomes
func (m Match) IsOutcome(s string) bool {
	return s == m.Team1 || s == m.Team2 || s == Draw
}

// Pool returns the sum of all wagered amounts
func (m Match) Pool() decimal.Decimal {
	total := decimal.Zero
	for _, b := range m.Bets {
		total = total.Add(b.Amount)
	}
	return total
}

// Bet represents a wager placed on a match
type Bet struct {
	ID         string          `json:"id"`
	MatchID    string          `json:"match_id"`
	Username   string          `json:"username"`
	Amount     decimal.Decimal `json:"amount"`
	Prediction string          `json:"prediction"`
	PlacedAt   time.Time       `json:"placed_at"`
}

// Payout is the credit a single bet received at settlement
type Payout struct {
	BetID    string          `json:"bet_id"`
	Username string          `json:"username"`
	Wagered  decimal.Decimal `json:"wagered"`
	Credited decimal.Decimal `json:"credited"`
	Won      bool            `json:"won"`
}

// Settlement summarizes the credits applied when a match result was recorded
type Settlement struct {
	MatchID   string          `json:"match_id"`
	Result    string          `json:"result"`
	Payouts   []Payout        `json:"payouts"`
	HouseCut  decimal.Decimal `json:"house_cut"`
	SettledAt time.Time       `json:"settled_at"`
}
