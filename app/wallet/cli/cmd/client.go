package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client talks to the public API of a node.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type errResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (c *client) do(ctx context.Context, method string, path string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er errResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("node responded with status %d", resp.StatusCode)
		}

		if len(er.Fields) > 0 {
			return fmt.Errorf("%s: %v", er.Error, er.Fields)
		}
		return errors.New(er.Error)
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// =============================================================================

type submitRequest struct {
	To     int    `json:"to"`
	Amount uint64 `json:"amount"`
}

type status struct {
	Status string `json:"status"`
}

type balance struct {
	ID        int    `json:"id"`
	PublicKey string `json:"public_key"`
	Balance   uint64 `json:"balance"`
}

type tx struct {
	ID         string `json:"id"`
	SenderID   int    `json:"sender_id"`
	ReceiverID int    `json:"receiver_id"`
	Amount     uint64 `json:"amount"`
	Change     uint64 `json:"change"`
}

type block struct {
	Index uint64 `json:"index"`
	Hash  string `json:"hash"`
	Trans []tx   `json:"trans"`
}

type contact struct {
	ID        int    `json:"id"`
	Host      string `json:"host"`
	PublicKey string `json:"public_key"`
	Outputs   int    `json:"outputs"`
	Balance   uint64 `json:"balance"`
}

type measurements struct {
	Created          int       `json:"created"`
	Executed         int       `json:"executed"`
	TransactionsTime float64   `json:"transactions_time"`
	BlockTimes       []float64 `json:"block_times"`
	Throughput       float64   `json:"throughput"`
	MeanBlockTime    float64   `json:"mean_block_time"`
}

func (c *client) send(ctx context.Context, to int, amount uint64) (string, error) {
	var resp status
	if err := c.do(ctx, http.MethodPost, "/v1/tx/submit", submitRequest{To: to, Amount: amount}, &resp); err != nil {
		return "", err
	}

	return resp.Status, nil
}

func (c *client) balance(ctx context.Context) (balance, error) {
	var resp balance
	err := c.do(ctx, http.MethodGet, "/v1/balance", nil, &resp)
	return resp, err
}

func (c *client) lastBlock(ctx context.Context) (block, error) {
	var resp block
	err := c.do(ctx, http.MethodGet, "/v1/tx/last", nil, &resp)
	return resp, err
}

func (c *client) contacts(ctx context.Context) ([]contact, error) {
	var resp []contact
	err := c.do(ctx, http.MethodGet, "/v1/debug/contacts", nil, &resp)
	return resp, err
}

func (c *client) measurements(ctx context.Context) (measurements, error) {
	var resp measurements
	err := c.do(ctx, http.MethodGet, "/v1/measurements", nil, &resp)
	return resp, err
}
