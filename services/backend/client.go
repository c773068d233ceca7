package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"giftkit/models"

	"go.uber.org/zap"
)

// HTTPClient talks JSON to the kit backend over REST.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *HTTPClient) FetchIdentity(ctx context.Context, credential string) (*models.Contact, error) {
	var contact models.Contact
	headers := map[string]string{"Authorization": "Bearer " + credential}
	if err := c.do(ctx, "identity", http.MethodGet, "/api/auth/me", headers, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *HTTPClient) FetchSuggestions(ctx context.Context, budget models.BudgetTier) (*Suggestions, error) {
	q := url.Values{}
	q.Set("budget", strconv.Itoa(int(budget)))

	var out Suggestions
	if err := c.do(ctx, "suggestions", http.MethodGet, "/api/kits/suggestions?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CalculatePrice(ctx context.Context, req PriceRequest) (*models.PriceQuote, error) {
	var quote models.PriceQuote
	if err := c.do(ctx, "price", http.MethodPost, "/api/kits/price", nil, req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *HTTPClient) SubmitEnquiry(ctx context.Context, idempotencyKey string, enquiry models.Enquiry) (*models.EnquiryAck, error) {
	var ack models.EnquiryAck
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	if err := c.do(ctx, "enquiry", http.MethodPost, "/api/enquiries", headers, enquiry, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// do sends one request and decodes a 2xx JSON body into out.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend %s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("backend %s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend %s: decoding response: %w", op, err)
	}
	return nil
}

// readErrorMessage pulls "message" or "error" out of a JSON error body, falling back
// to the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
