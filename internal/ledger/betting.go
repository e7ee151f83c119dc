package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/xtrntr/ligabets/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CreateMatch adds an open match with no bets.
// Duplicate fixtures are allowed.
func (l *Ledger) CreateMatch(team1, team2 string, date time.Time) (models.Match, error) {
	team1 = strings.TrimSpace(team1)
	team2 = strings.TrimSpace(team2)
	if team1 == "" || team2 == "" {
		return models.Match{}, fmt.Errorf("both teams are required: %w", ErrInvalidInput)
	}
	if team1 == team2 {
		return models.Match{}, fmt.Errorf("team %q cannot play itself: %w", team1, ErrInvalidInput)
	}
	if team1 == models.Draw || team2 == models.Draw {
		return models.Match{}, fmt.Errorf("team name %q is reserved: %w", models.Draw, ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m := &models.Match{
		ID:        uuid.NewString(),
		Team1:     team1,
		Team2:     team2,
		Date:      date,
		Bets:      []models.Bet{},
		CreatedAt: l.opts.Now(),
	}
	l.matches = append(l.matches, m)
	l.byMatch[m.ID] = m

	l.log.WithFields(log.Fields{
		"match_id": m.ID,
		"team1":    team1,
		"team2":    team2,
	}).Info("Match created")
	return copyMatch(m), nil
}

// Match retrieves a match by id
func (l *Ledger) Match(id string) (models.Match, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.byMatch[id]
	if !ok {
		return models.Match{}, fmt.Errorf("match %q: %w", id, ErrNotFound)
	}
	return copyMatch(m), nil
}

// Matches returns all matches in creation order
func (l *Ledger) Matches() []models.Match {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Match, 0, len(l.matches))
	for _, m := range l.matches {
		out = append(out, copyMatch(m))
	}
	return out
}

// OpenMatches returns matches that still accept bets
func (l *Ledger) OpenMatches() []models.Match {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []models.Match{}
	for _, m := range l.matches {
		if !m.Settled() {
			out = append(out, copyMatch(m))
		}
	}
	return out
}

// BetsByUser returns every bet placed by username, oldest match first
func (l *Ledger) BetsByUser(username string) ([]models.Bet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.byUsername[username]; !ok {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	bets := []models.Bet{}
	for _, m := range l.matches {
		for _, b := range m.Bets {
			if b.Username == username {
				bets = append(bets, b)
			}
		}
	}
	return bets, nil
}

// PlaceBet debits amount from the user and records the wager on the match
func (l *Ledger) PlaceBet(matchID, username string, amount decimal.Decimal, prediction string) (models.Bet, error) {
	if !amount.IsPositive() {
		return models.Bet{}, fmt.Errorf("amount %s: %w", amount, ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.byMatch[matchID]
	if !ok {
		return models.Bet{}, fmt.Errorf("match %q: %w", matchID, ErrNotFound)
	}
	u, ok := l.byUsername[username]
	if !ok {
		return models.Bet{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if m.Settled() {
		return models.Bet{}, fmt.Errorf("match %q: %w", matchID, ErrMatchClosed)
	}
	if !m.IsOutcome(prediction) {
		return models.Bet{}, fmt.Errorf("prediction %q must be %q, %q or %q: %w",
			prediction, m.Team1, m.Team2, models.Draw, ErrInvalidPrediction)
	}
	if amount.GreaterThan(u.Tokens) {
		return models.Bet{}, fmt.Errorf("have %s, need %s: %w", u.Tokens, amount, ErrInsufficientBalance)
	}

	bet := models.Bet{
		ID:         uuid.NewString(),
		MatchID:    m.ID,
		Username:   u.Username,
		Amount:     amount,
		Prediction: prediction,
		PlacedAt:   l.opts.Now(),
	}
	u.Tokens = u.Tokens.Sub(amount)
	m.Bets = append(m.Bets, bet)

	l.log.WithFields(log.Fields{
		"match_id":   m.ID,
		"username":   u.Username,
		"amount":     amount.String(),
		"prediction": prediction,
	}).Debug("Bet placed")
	return bet, nil
}

// Settle records the match result and credits bettors and the admin account.
// A match can only be settled once.
func (l *Ledger) Settle(matchID, result string) (models.Settlement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.byMatch[matchID]
	if !ok {
		return models.Settlement{}, fmt.Errorf("match %q: %w", matchID, ErrNotFound)
	}
	if m.Settled() {
		return models.Settlement{}, fmt.Errorf("match %q settled as %q: %w", matchID, m.Result, ErrAlreadySettled)
	}
	if !m.IsOutcome(result) {
		return models.Settlement{}, fmt.Errorf("result %q must be %q, %q or %q: %w",
			result, m.Team1, m.Team2, models.Draw, ErrInvalidResult)
	}

	// Every bettor was resolved at placement, so credits below cannot fail.
	now := l.opts.Now()
	m.Result = result
	m.SettledAt = &now

	settlement := models.Settlement{
		MatchID:   m.ID,
		Result:    result,
		Payouts:   make([]models.Payout, 0, len(m.Bets)),
		SettledAt: now,
	}
	for _, b := range m.Bets {
		won := b.Prediction == result
		rate := l.opts.LossRate
		if won {
			rate = l.opts.WinRate
		}
		credit := b.Amount.Mul(rate)
		bettor := l.byUsername[b.Username]
		bettor.Tokens = bettor.Tokens.Add(credit)

		settlement.Payouts = append(settlement.Payouts, models.Payout{
			BetID:    b.ID,
			Username: b.Username,
			Wagered:  b.Amount,
			Credited: credit,
			Won:      won,
		})
	}

	settlement.HouseCut = m.Pool().Mul(l.opts.HouseRate)
	l.admin.Tokens = l.admin.Tokens.Add(settlement.HouseCut)

	l.log.WithFields(log.Fields{
		"match_id":  m.ID,
		"result":    result,
		"bets":      len(m.Bets),
		"house_cut": settlement.HouseCut.String(),
	}).Info("Match settled")
	return settlement, nil
}

// copyMatch detaches a match from the stored record
func copyMatch(m *models.Match) models.Match {
	c := *m
	c.Bets = append([]models.Bet(nil), m.Bets...)
	if c.Bets == nil {
		c.Bets = []models.Bet{}
	}
	if m.SettledAt != nil {
		t := *m.SettledAt
		c.SettledAt = &t
	}
	return c
}
