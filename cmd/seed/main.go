package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
)

type client struct {
	baseURL string
	http    *http.Client
}

// do sends a JSON request and decodes the JSON response into out
func (c *client) do(method, path, token string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *client) login(email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do("POST", "/auth/login", "", map[string]string{"email": email, "password": password}, &resp)
	return resp.Token, err
}

type seedUser struct {
	username, email, password string
}

type seedBet struct {
	user       int
	amount     int
	prediction string
}

// Seed a running server with demo users, matches and bets
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	adminEmail := flag.String("admin-email", "admin@ligabets.local", "admin account email")
	adminPassword := flag.String("admin-password", "adminpassword", "admin account password")
	flag.Parse()

	c := &client{baseURL: *addr, http: &http.Client{Timeout: 10 * time.Second}}

	// First check if the server already has matches
	var matches []json.RawMessage
	if err := c.do("GET", "/matches", "", nil, &matches); err != nil {
		log.Fatalf("Failed to check matches: %v", err)
	}
	if len(matches) > 0 {
		pterm.Info.Printfln("Server already has %d matches. No need to seed.", len(matches))
		os.Exit(0)
	}

	adminToken, err := c.login(*adminEmail, *adminPassword)
	if err != nil {
		log.Fatalf("Failed to log in as admin: %v", err)
	}

	// Create users, the later ones referred by the first
	users := []seedUser{
		{"lucia", "lucia@example.com", "password123"},
		{"pablo", "pablo@example.com", "password123"},
		{"marta", "marta@example.com", "password123"},
	}
	tokens := make([]string, len(users))
	var referralCode string
	for i, u := range users {
		var created struct {
			ReferralCode string `json:"referral_code"`
		}
		body := map[string]string{"username": u.username, "email": u.email, "password": u.password, "referral_code": referralCode}
		if err := c.do("POST", "/auth/register", "", body, &created); err != nil {
			log.Fatalf("Failed to register %s: %v", u.username, err)
		}
		if i == 0 {
			referralCode = created.ReferralCode
		}
		if tokens[i], err = c.login(u.email, u.password); err != nil {
			log.Fatalf("Failed to log in %s: %v", u.username, err)
		}
	}
	pterm.Success.Printfln("Registered %d users", len(users))

	fixtures := []struct {
		team1, team2, date string
		bets               []seedBet
		result             string
	}{
		{"Real Madrid", "Barcelona", time.Now().AddDate(0, 0, -2).Format("2006-01-02"),
			[]seedBet{{0, 200, "Real Madrid"}, {1, 300, "Barcelona"}, {2, 100, "draw"}}, "Real Madrid"},
		{"Atletico Madrid", "Sevilla", time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
			[]seedBet{{1, 150, "Sevilla"}, {2, 250, "Atletico Madrid"}}, "draw"},
		{"Valencia", "Real Betis", time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
			[]seedBet{{0, 50, "Valencia"}}, ""},
	}

	for _, f := range fixtures {
		var match struct {
			ID string `json:"id"`
		}
		body := map[string]string{"team1": f.team1, "team2": f.team2, "date": f.date}
		if err := c.do("POST", "/admin/matches", adminToken, body, &match); err != nil {
			log.Fatalf("Failed to create match %s vs %s: %v", f.team1, f.team2, err)
		}
		for _, b := range f.bets {
			body := map[string]interface{}{"amount": b.amount, "prediction": b.prediction}
			if err := c.do("POST", "/matches/"+match.ID+"/bets", tokens[b.user], body, nil); err != nil {
				log.Fatalf("Failed to place bet for %s: %v", users[b.user].username, err)
			}
		}
		if f.result != "" {
			if err := c.do("POST", "/admin/matches/"+match.ID+"/result", adminToken, map[string]string{"result": f.result}, nil); err != nil {
				log.Fatalf("Failed to settle %s vs %s: %v", f.team1, f.team2, err)
			}
		}
		pterm.Success.Printfln("Seeded %s vs %s", f.team1, f.team2)
	}

	var board []struct {
		Rank     int    `json:"rank"`
		Username string `json:"username"`
		Tokens   string `json:"tokens"`
	}
	if err := c.do("GET", "/leaderboard", "", nil, &board); err != nil {
		log.Fatalf("Failed to fetch leaderboard: %v", err)
	}

	data := pterm.TableData{{"Rank", "User", "Tokens"}}
	for _, e := range board {
		data = append(data, []string{fmt.Sprint(e.Rank), e.Username, e.Tokens})
	}
	pterm.DefaultSection.Println("Hall of Fame")
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		log.Fatalf("Failed to render leaderboard: %v", err)
	}
}
