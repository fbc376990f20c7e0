// Package entropy supplies the stochastic rolls the simulation needs (gang
// formation, theft success, arrest probability, bribe acceptance, exposure
// checks) behind a pluggable source: a true-randomness client with a
// crypto/rand fallback, ported from the teacher's internal/entropy/random.go
// almost unchanged — the pattern needs no new third-party dependency, it
// already uses only the standard library.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Client pulls true-random floats from random.org in batches, falling back
// to crypto/rand on any failure. Construct with NewClient(apiKey); an empty
// key yields a nil-safe disabled client (Enabled() reports false, Float()
// still works via the crypto/rand fallback).
type Client struct {
	apiKey     string
	httpClient *http.Client
	mu         sync.Mutex
	pool       []float64
}

// NewClient constructs a Client. apiKey may be empty, in which case
// Enabled() returns false and Float always uses the fallback.
func NewClient(apiKey string) *Client {
	return &Client{apiKey: apiKey, httpClient: &http.Client{Timeout: 5 * time.Second}}
}

// Enabled reports whether this client has a configured random.org key.
func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

// Float returns a uniform [0,1) random float, refilling the pool from
// random.org when it runs low and the client is enabled.
func (c *Client) Float() float64 {
	if c == nil || !c.Enabled() {
		return CryptoFloat()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pool) < 10 {
		c.refill()
	}
	if len(c.pool) == 0 {
		return CryptoFloat()
	}
	f := c.pool[len(c.pool)-1]
	c.pool = c.pool[:len(c.pool)-1]
	return f
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      int            `json:"id"`
}

type rpcResponse struct {
	Result *struct {
		Random struct {
			Data []float64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) refill() {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params: map[string]any{
			"apiKey":          c.apiKey,
			"n":               50,
			"decimalPlaces":   10,
			"replacement":     true,
		},
		ID: 1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Post("https://api.random.org/json-rpc/4/invoke", "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	defer resp.Body.Close()

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return
	}
	if out.Error != nil || out.Result == nil {
		return
	}
	c.pool = append(c.pool, out.Result.Random.Data...)
}

// CryptoFloat returns a uniform [0,1) float from crypto/rand, used as the
// always-available fallback.
func CryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	v >>= 11 // 53 significant bits
	return float64(v) / float64(uint64(1)<<53)
}

// FloatFromSource is a package-level helper that prefers c when enabled,
// otherwise uses CryptoFloat — convenient when a caller holds a possibly
// nil *Client.
func FloatFromSource(c *Client) float64 {
	if c != nil && c.Enabled() {
		return c.Float()
	}
	return CryptoFloat()
}

// Bool rolls true with probability p using src.
func Bool(c *Client, p float64) bool {
	return FloatFromSource(c) < p
}
