package ledger_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xtrntr/ligabets/internal/auth"
	"github.com/xtrntr/ligabets/internal/ledger"
	"github.com/xtrntr/ligabets/internal/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	logger, _ := test.NewNullLogger()
	opts := ledger.DefaultOptions()
	opts.Hasher = auth.NewHasher("test-salt")
	opts.Logger = log.NewEntry(logger)
	l, err := ledger.New(opts)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return l
}

func mustRegister(t *testing.T, l *ledger.Ledger, username string) models.User {
	t.Helper()
	u, err := l.Register(username, username+"@example.com", "password123", "")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedger_New(t *testing.T) {
	l := newTestLedger(t)

	admin := l.Admin()
	if admin.Username != "admin" || !admin.IsAdmin() {
		t.Errorf("expected admin account with admin role, got %+v", admin)
	}
	if !admin.Tokens.IsZero() {
		t.Errorf("expected admin to start with 0 tokens, got %s", admin.Tokens)
	}

	if _, err := ledger.New(ledger.DefaultOptions()); err == nil {
		t.Error("expected error without a hasher")
	}
}

func TestLedger_Register(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(l *ledger.Ledger)
		username  string
		email     string
		password  string
		expectErr error
	}{
		{
			name:     "Success",
			username: "alice",
			email:    "alice@example.com",
			password: "password123",
		},
		{
			name:      "DuplicateUsername",
			setup:     func(l *ledger.Ledger) { l.Register("alice", "other@example.com", "pw", "") },
			username:  "alice",
			email:     "alice@example.com",
			password:  "password123",
			expectErr: ledger.ErrDuplicateUser,
		},
		{
			name:      "DuplicateEmail",
			setup:     func(l *ledger.Ledger) { l.Register("bob", "alice@example.com", "pw", "") },
			username:  "alice",
			email:     "alice@example.com",
			password:  "password123",
			expectErr: ledger.ErrDuplicateUser,
		},
		{
			name:      "AdminUsernameTaken",
			username:  "admin",
			email:     "someone@example.com",
			password:  "password123",
			expectErr: ledger.ErrDuplicateUser,
		},
		{
			name:      "EmptyPassword",
			username:  "alice",
			email:     "alice@example.com",
			password:  "",
			expectErr: ledger.ErrInvalidInput,
		},
		{
			name:      "EmptyUsername",
			username:  "  ",
			email:     "alice@example.com",
			password:  "password123",
			expectErr: ledger.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			if tt.setup != nil {
				tt.setup(l)
			}

			user, err := l.Register(tt.username, tt.email, tt.password, "")
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Errorf("expected %v, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Username != tt.username {
				t.Errorf("expected username %q, got %q", tt.username, user.Username)
			}
			if !user.Tokens.Equal(decimal.NewFromInt(1000)) {
				t.Errorf("expected 1000 starting tokens, got %s", user.Tokens)
			}
			if user.Role != models.RoleUser {
				t.Errorf("expected role %q, got %q", models.RoleUser, user.Role)
			}
			if user.PasswordHash == tt.password {
				t.Error("password stored in plaintext")
			}
			if user.ReferralCode == "" || user.ReferralFrom != "" {
				t.Errorf("unexpected referral fields: code=%q from=%q", user.ReferralCode, user.ReferralFrom)
			}
		})
	}
}

func TestLedger_Register_PasswordHashIsDeterministic(t *testing.T) {
	l := newTestLedger(t)
	a, _ := l.Register("alice", "alice@example.com", "same-password", "")
	b, _ := l.Register("bob", "bob@example.com", "same-password", "")
	c, _ := l.Register("carol", "carol@example.com", "other-password", "")

	if a.PasswordHash != b.PasswordHash {
		t.Error("same password produced different hashes")
	}
	if a.PasswordHash == c.PasswordHash {
		t.Error("different passwords produced the same hash")
	}
}

func TestLedger_Register_Referral(t *testing.T) {
	l := newTestLedger(t)
	alice := mustRegister(t, l, "alice")

	tests := []struct {
		name         string
		username     string
		code         string
		expectedFrom string
	}{
		{name: "KnownCode", username: "bob", code: alice.ReferralCode, expectedFrom: "alice"},
		{name: "UnknownCode", username: "carol", code: "nobody_0000", expectedFrom: ""},
		{name: "NoCode", username: "dave", code: "", expectedFrom: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := l.Register(tt.username, tt.username+"@example.com", "pw", tt.code)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.ReferralFrom != tt.expectedFrom {
				t.Errorf("expected referral from %q, got %q", tt.expectedFrom, u.ReferralFrom)
			}
		})
	}

	referred, err := l.Referrals("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(referred) != 1 || referred[0] != "bob" {
		t.Errorf("expected [bob], got %v", referred)
	}
}

func TestLedger_Register_UniqueReferralCodes(t *testing.T) {
	l := newTestLedger(t)
	seen := map[string]bool{l.Admin().ReferralCode: true}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		u := mustRegister(t, l, name)
		if seen[u.ReferralCode] {
			t.Errorf("duplicate referral code %q", u.ReferralCode)
		}
		seen[u.ReferralCode] = true
	}
}

func TestLedger_Authenticate(t *testing.T) {
	l := newTestLedger(t)
	mustRegister(t, l, "alice")

	tests := []struct {
		name      string
		email     string
		password  string
		expectErr error
	}{
		{name: "Success", email: "alice@example.com", password: "password123"},
		{name: "WrongPassword", email: "alice@example.com", password: "wrongpass", expectErr: ledger.ErrInvalidCredentials},
		{name: "UnknownEmail", email: "bob@example.com", password: "password123", expectErr: ledger.ErrNotFound},
		{name: "Admin", email: "admin@ligabets.local", password: "adminpassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := l.Authenticate(tt.email, tt.password)
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Errorf("expected %v, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Email != tt.email {
				t.Errorf("expected email %q, got %q", tt.email, u.Email)
			}
		})
	}
}

func TestLedger_Leaderboard(t *testing.T) {
	l := newTestLedger(t)
	mustRegister(t, l, "alice")
	mustRegister(t, l, "bob")
	mustRegister(t, l, "carol")

	m, _ := l.CreateMatch("TeamX", "TeamY", time.Now())
	if _, err := l.PlaceBet(m.ID, "alice", dec("500"), "TeamX"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.PlaceBet(m.ID, "carol", dec("100"), "TeamY"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name          string
		topN          int
		expectedNames []string
	}{
		{name: "All", topN: 10, expectedNames: []string{"bob", "carol", "alice", "admin"}},
		{name: "Top2", topN: 2, expectedNames: []string{"bob", "carol"}},
		{name: "Zero", topN: 0, expectedNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := l.Leaderboard(tt.topN)
			if len(board) != len(tt.expectedNames) {
				t.Fatalf("expected %d entries, got %d", len(tt.expectedNames), len(board))
			}
			for i, name := range tt.expectedNames {
				if board[i].Username != name {
					t.Errorf("position %d: expected %s, got %s", i, name, board[i].Username)
				}
			}
			for i := 1; i < len(board); i++ {
				if board[i].Tokens.GreaterThan(board[i-1].Tokens) {
					t.Error("leaderboard not sorted by descending tokens")
				}
			}
		})
	}
}

func TestLedger_Leaderboard_TiesKeepRegistrationOrder(t *testing.T) {
	l := newTestLedger(t)
	for _, name := range []string{"zed", "amy", "kim"} {
		mustRegister(t, l, name)
	}

	board := l.Leaderboard(3)
	expected := []string{"zed", "amy", "kim"}
	for i, name := range expected {
		if board[i].Username != name {
			t.Errorf("position %d: expected %s, got %s", i, name, board[i].Username)
		}
	}
}

func TestLedger_ConcurrentRegistration(t *testing.T) {
	l := newTestLedger(t)

	var wg sync.WaitGroup
	n := 10
	wg.Add(n)
	successCount := 0
	mu := sync.Mutex{}

	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := l.Register("alice", "alice@example.com", "pw", ""); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successCount != 1 {
		t.Errorf("expected exactly 1 successful registration, got %d", successCount)
	}
}
