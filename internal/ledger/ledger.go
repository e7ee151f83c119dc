package ledger

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xtrntr/ligabets/internal/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// PasswordHasher turns plaintext passwords into one-way hashes
type PasswordHasher interface {
	Hash(password string) string
	Compare(hash, password string) bool
}

// Options configures a Ledger
type Options struct {
	StartingBalance decimal.Decimal
	WinRate         decimal.Decimal // share of the wager credited back on a correct prediction
	LossRate        decimal.Decimal // share of the wager credited back on a wrong prediction
	HouseRate       decimal.Decimal // share of the match pool credited to the admin account

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	Hasher PasswordHasher
	Logger *log.Entry
	Now    func() time.Time
}

// DefaultOptions returns the standard payout schedule and starting balance
func DefaultOptions() Options {
	return Options{
		StartingBalance: decimal.NewFromInt(1000),
		WinRate:         decimal.RequireFromString("0.8"),
		LossRate:        decimal.RequireFromString("0.2"),
		HouseRate:       decimal.RequireFromString("0.2"),
		AdminUsername:   "admin",
		AdminEmail:      "admin@ligabets.local",
		AdminPassword:   "adminpassword",
	}
}

// Ledger owns user balances and match betting records.
// Every exported method runs as a single critical section.
type Ledger struct {
	mu   sync.RWMutex
	opts Options
	log  *log.Entry

	users      []*models.User // insertion order
	byUsername map[string]*models.User
	byEmail    map[string]*models.User
	byReferral map[string]*models.User

	matches []*models.Match // creation order
	byMatch map[string]*models.Match

	admin *models.User
}

// New creates a ledger and registers its admin account
func New(opts Options) (*Ledger, error) {
	if opts.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if opts.AdminUsername == "" || opts.AdminEmail == "" {
		return nil, fmt.Errorf("admin username and email are required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.NewEntry(log.StandardLogger())
	}

	l := &Ledger{
		opts:       opts,
		log:        opts.Logger.WithField("component", "ledger"),
		byUsername: make(map[string]*models.User),
		byEmail:    make(map[string]*models.User),
		byReferral: make(map[string]*models.User),
		byMatch:    make(map[string]*models.Match),
	}

	admin, err := l.addUser(opts.AdminUsername, opts.AdminEmail, opts.AdminPassword, "", models.RoleAdmin, decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin account: %w", err)
	}
	l.admin = admin
	return l, nil
}

// Register creates a user with the starting balance.
// An unknown referral code is ignored.
func (l *Ledger) Register(username, email, password, referralCode string) (models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.addUser(username, email, password, referralCode, models.RoleUser, l.opts.StartingBalance)
	if err != nil {
		return models.User{}, err
	}
	l.log.WithFields(log.Fields{
		"username":      u.Username,
		"referral_from": u.ReferralFrom,
	}).Info("User registered")
	return *u, nil
}

// addUser validates and stores a new user. Caller must hold the write lock.
func (l *Ledger) addUser(username, email, password, referralCode string, role models.Role, balance decimal.Decimal) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("username, email and password are required: %w", ErrInvalidInput)
	}
	if _, ok := l.byUsername[username]; ok {
		return nil, fmt.Errorf("username %q: %w", username, ErrDuplicateUser)
	}
	if _, ok := l.byEmail[email]; ok {
		return nil, fmt.Errorf("email %q: %w", email, ErrDuplicateUser)
	}

	var referralFrom string
	if referralCode != "" {
		if referrer, ok := l.byReferral[referralCode]; ok {
			referralFrom = referrer.Username
		}
	}

	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: l.opts.Hasher.Hash(password),
		Tokens:       balance,
		ReferralCode: l.newReferralCode(username),
		ReferralFrom: referralFrom,
		Role:         role,
		CreatedAt:    l.opts.Now(),
	}
	l.users = append(l.users, u)
	l.byUsername[u.Username] = u
	l.byEmail[u.Email] = u
	l.byReferral[u.ReferralCode] = u
	return u, nil
}

// newReferralCode returns an unused code of the form <username>_<4 digits>
func (l *Ledger) newReferralCode(username string) string {
	for {
		code := fmt.Sprintf("%s_%d", username, 1000+rand.Intn(9000))
		if _, taken := l.byReferral[code]; !taken {
			return code
		}
	}
}

// Authenticate returns the user registered with email if the password matches
func (l *Ledger) Authenticate(email, password string) (models.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	u, ok := l.byEmail[strings.TrimSpace(email)]
	if !ok {
		return models.User{}, fmt.Errorf("email %q: %w", email, ErrNotFound)
	}
	if !l.opts.Hasher.Compare(u.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// User retrieves a user by username
func (l *Ledger) User(username string) (models.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	u, ok := l.byUsername[username]
	if !ok {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return *u, nil
}

// Admin returns the administrative account that collects the house cut
func (l *Ledger) Admin() models.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.admin
}

// Referrals lists the usernames that registered with the user's referral code
func (l *Ledger) Referrals(username string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.byUsername[username]; !ok {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	referred := []string{}
	for _, u := range l.users {
		if u.ReferralFrom == username {
			referred = append(referred, u.Username)
		}
	}
	return referred, nil
}

// Leaderboard returns up to topN users ordered by descending balance.
// Users with equal balances keep registration order.
func (l *Ledger) Leaderboard(topN int) []models.User {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if topN <= 0 {
		return []models.User{}
	}
	ranked := make([]models.User, len(l.users))
	for i, u := range l.users {
		ranked[i] = *u
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Tokens.GreaterThan(ranked[j].Tokens)
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
