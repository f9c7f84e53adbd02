package mam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jasonb194/MAMManager/internal/model"
)

// MAM API paths, relative to the base URL.
const (
	userDataPath    = "/jsonLoad.php"
	donateVaultPath = "/millionaires/donate.php"
	buyVIPPath      = "/json/bonusBuy.php/?spendtype=VIP&amount=max"
	buyCreditPath   = "/json/bonusBuy.php/?spendtype=upload&amount=50"
)

// userDataParams are the extra flags MAM expects on the status query.
var userDataParams = []string{"pretty", "notif", "clientStats", "snatch_summary"}

// CredentialStore owns the rotating mam_id session cookie. The client reads
// it on every request and writes back any renewed value before returning.
type CredentialStore interface {
	Credential() string
	SetCredential(cookie string)
}

// Client issues authenticated requests against the MAM API.
type Client struct {
	BaseURL      string
	UserID       string
	DonateAmount int
	Store        CredentialStore
	HTTP         *http.Client
}

// NewClient creates a Client with optional proxy support.
func NewClient(baseURL, userID string, donateAmount int, store CredentialStore, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		UserID:       userID,
		DonateAmount: donateAmount,
		Store:        store,
		HTTP: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// userPayload is the expected shape of the jsonLoad response. Numeric
// fields go through tolerant parsing because MAM returns some of them
// either as numbers or as comma-grouped strings.
type userPayload struct {
	Username        string          `json:"username"`
	Classname       string          `json:"classname"`
	CountryName     string          `json:"country_name"`
	Ratio           json.RawMessage `json:"ratio"`
	Uploaded        string          `json:"uploaded"`
	Downloaded      string          `json:"downloaded"`
	UploadedBytes   int64           `json:"uploaded_bytes"`
	DownloadedBytes int64           `json:"downloaded_bytes"`
	Seedbonus       json.RawMessage `json:"seedbonus"`
	Wedges          int             `json:"wedges"`
	VaultDonated    bool            `json:"vault_donated"`
	Error           string          `json:"error"`
	Notifs          struct {
		PMs      int `json:"pms"`
		Tickets  int `json:"tickets"`
		Requests int `json:"requests"`
		Topics   int `json:"topics"`
	} `json:"notifs"`
}

// FetchStatus retrieves and parses the account snapshot. Any renewed
// session cookie in the response is stored before the call returns.
func (c *Client) FetchStatus(ctx context.Context) (*model.AccountSnapshot, error) {
	q := url.Values{}
	q.Set("id", c.UserID)
	for _, p := range userDataParams {
		q.Set(p, "")
	}
	endpoint := c.BaseURL + userDataPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	c.setCookie(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user data: %w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	c.applyRenewedCookie(resp)

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("fetch user data: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read user data: %w: %v", ErrTransient, err)
	}

	var p userPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode user data: %w: %v", ErrParse, err)
	}
	if p.Error != "" {
		return nil, fmt.Errorf("fetch user data: %w: %s", ErrAuth, p.Error)
	}
	if p.Username == "" {
		return nil, fmt.Errorf("decode user data: %w: missing username", ErrParse)
	}

	return &model.AccountSnapshot{
		Username:        p.Username,
		Classname:       p.Classname,
		CountryName:     p.CountryName,
		Ratio:           parseFloat(p.Ratio),
		Uploaded:        p.Uploaded,
		Downloaded:      p.Downloaded,
		UploadedBytes:   p.UploadedBytes,
		DownloadedBytes: p.DownloadedBytes,
		Seedbonus:       parseInt(p.Seedbonus),
		Wedges:          p.Wedges,
		Notifications:   p.Notifs.PMs + p.Notifs.Tickets + p.Notifs.Requests + p.Notifs.Topics,
		DonatedToday:    p.VaultDonated,
		FetchedAt:       time.Now().UTC(),
	}, nil
}

// DonateVault posts the daily vault donation form.
func (c *Client) DonateVault(ctx context.Context) error {
	form := url.Values{}
	form.Set("Donation", strconv.Itoa(c.DonateAmount))
	form.Set("time", strconv.FormatInt(time.Now().UnixMilli(), 10))
	form.Set("submit", "Donate Points")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+donateVaultPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build donate request: %w", err)
	}
	// The millionaires form rejects non-browser requests.
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36")
	req.Header.Set("Origin", c.BaseURL)
	req.Header.Set("Referer", c.BaseURL+"/millionaires/")
	c.setCookie(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("donate to vault: %w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	c.applyRenewedCookie(resp)
	io.Copy(io.Discard, resp.Body)

	if err := checkActionStatus(resp.StatusCode); err != nil {
		return fmt.Errorf("donate to vault: %w", err)
	}
	return nil
}

// BuyVIP spends bonus points on VIP time.
func (c *Client) BuyVIP(ctx context.Context) error {
	return c.bonusBuy(ctx, buyVIPPath, "buy VIP")
}

// BuyCredit spends bonus points on upload credit.
func (c *Client) BuyCredit(ctx context.Context) error {
	return c.bonusBuy(ctx, buyCreditPath, "buy upload credit")
}

func (c *Client) bonusBuy(ctx context.Context, path, what string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", what, err)
	}
	c.setCookie(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", what, ErrTransient, err)
	}
	defer resp.Body.Close()
	c.applyRenewedCookie(resp)

	if err := checkActionStatus(resp.StatusCode); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", what, ErrTransient, err)
	}

	// bonusBuy answers with a small JSON document; an explicit
	// success=false means the purchase was declined (e.g. not enough
	// points at call time despite the pre-check).
	var result struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err == nil && result.Success != nil && !*result.Success {
		msg := result.Error
		if msg == "" {
			msg = "purchase declined"
		}
		return fmt.Errorf("%s: %w: %s", what, ErrRejected, msg)
	}
	return nil
}

func (c *Client) setCookie(req *http.Request) {
	req.Header.Set("Cookie", "mam_id="+c.Store.Credential())
}

// applyRenewedCookie stores a rotated mam_id from the Set-Cookie headers,
// if any, so the next call — from either the display poll or the daily
// cycle — uses it.
func (c *Client) applyRenewedCookie(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name == "mam_id" && ck.Value != "" && ck.Value != c.Store.Credential() {
			c.Store.SetCredential(ck.Value)
			log.Println("[INFO] mam_id session cookie rotated")
		}
	}
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuth
	default:
		return fmt.Errorf("%w: status %d", ErrTransient, code)
	}
}

func checkActionStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuth
	case code >= 500:
		return fmt.Errorf("%w: status %d", ErrTransient, code)
	default:
		return fmt.Errorf("%w: status %d", ErrRejected, code)
	}
}

// parseInt reads a JSON number that may arrive as a bare number or as a
// comma-grouped string ("30,000").
func parseInt(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(v)
	}
	return 0
}

func parseFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
