package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"roulette-live-client/internal/models"
)

const requestTimeout = 15 * time.Second

// Client talks to the casino backend over its authenticated REST surface.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Me fetches the authenticated user's profile and server-confirmed balance.
func (c *Client) Me(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// PlaceBetsResponse is the backend's ack for a bet placement.
type PlaceBetsResponse struct {
	Status string           `json:"status"`
	SpinID string           `json:"spin_id"`
	Bets   map[string]int64 `json:"bets"`
}

// PlaceBets submits wire-keyed stakes for the current round.
func (c *Client) PlaceBets(ctx context.Context, bets map[string]int64) (*PlaceBetsResponse, error) {
	body := map[string]any{"bets": bets}
	var resp PlaceBetsResponse
	if err := c.do(ctx, http.MethodPost, "/bets/place", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelBets asks the backend to void every bet placed for the given spin.
func (c *Client) CancelBets(ctx context.Context, spinID string) error {
	body := map[string]any{"spin_id": spinID}
	return c.do(ctx, http.MethodPost, "/bets/cancel", body, nil)
}

// ClaimRequest asks the backend to sign a fresh single-use claim voucher.
func (c *Client) ClaimRequest(ctx context.Context, amount int64) (*models.ClaimVoucher, error) {
	body := map[string]any{"amount": amount}
	var voucher models.ClaimVoucher
	if err := c.do(ctx, http.MethodPost, "/users/claim_request", body, &voucher); err != nil {
		return nil, err
	}
	if voucher.IssuedAt.IsZero() {
		voucher.IssuedAt = time.Now()
	}
	return &voucher, nil
}

// CheckAllowance asks the backend for the token allowance the user has
// granted the casino contract, in smallest units.
func (c *Client) CheckAllowance(ctx context.Context, spender, user string) (string, error) {
	body := map[string]any{"spender_address": spender, "user_address": user}
	var resp struct {
		Allowance string `json:"allowance"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/check-allowance", body, &resp); err != nil {
		return "", err
	}
	return resp.Allowance, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rejectionFrom(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

// rejectionFrom decodes the backend's error shape. The body carries a
// human-readable detail field; anything else falls back to the status text.
func rejectionFrom(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var payload struct {
		Detail string `json:"detail"`
	}
	message := ""
	if err := json.Unmarshal(raw, &payload); err == nil {
		message = payload.Detail
	}
	if message == "" {
		message = resp.Status
	}

	log.WithFields(log.Fields{
		"status": resp.StatusCode,
		"detail": message,
	}).Warn("backend rejected request")

	return &models.ServerRejection{
		Code:    fmt.Sprintf("%d", resp.StatusCode),
		Message: message,
	}
}
