package luca

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// Client talks to the Luca accounting API. It implements
// integration.TargetClient.
//
// Luca authenticates with a server-side session: the client logs in once,
// caches the session ID and replays it as the JSESSIONID cookie. A 401 on
// any call invalidates the cache and triggers exactly one re-login before
// the call is retried.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	sessionID string
	expiresAt time.Time
}

// NewClient creates a Luca API client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

var _ integration.TargetClient = (*Client)(nil)

const loginPath = "/api/sessions"

// entityPath maps an entity type to its Luca collection endpoint
func entityPath(entityType integration.EntityType) (string, error) {
	switch entityType {
	case integration.EntityTypeCustomer, integration.EntityTypeSupplier:
		return "/api/accounts", nil
	case integration.EntityTypeProduct:
		return "/api/stock-cards", nil
	case integration.EntityTypeSalesOrder:
		return "/api/invoices/sales", nil
	case integration.EntityTypePurchaseOrder:
		return "/api/invoices/purchase", nil
	case integration.EntityTypeStockMovement:
		return "/api/inventory/movements", nil
	default:
		return "", fmt.Errorf("%w: %s", integration.ErrInvalidEntityType, entityType)
	}
}

type upsertResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Upsert creates or updates a record in Luca and returns the Luca ID. The
// payload carries its own Luca ID when this is an update.
func (c *Client) Upsert(ctx context.Context, entityType integration.EntityType, payload integration.LucaPayload) (string, error) {
	path, err := entityPath(entityType)
	if err != nil {
		return "", err
	}
	op := "Upsert " + entityType.String()

	method := http.MethodPost
	if lucaID := payload.LucaRef(); lucaID != "" {
		method = http.MethodPut
		path += "/" + url.PathEscape(lucaID)
	}

	body, err := c.doRequest(ctx, op, method, path, payload)
	if err != nil {
		return "", err
	}

	var resp upsertResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", c.schemaError(op, err)
	}
	lucaID := resp.Data.ID
	if lucaID == "" {
		lucaID = payload.LucaRef()
	}
	if lucaID == "" {
		return "", c.schemaError(op, errors.New("response carries no record ID"))
	}

	c.logger.Debug("record upserted",
		zap.String("entity_type", entityType.String()),
		zap.String("katana_id", payload.KatanaRef()),
		zap.String("luca_id", lucaID))
	return lucaID, nil
}

type wireRecord struct {
	ID      string          `json:"id"`
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   decimal.Decimal `json:"stock"`
	VATRate decimal.Decimal `json:"vat_rate"`
	// invoices respond with document_no and total instead of code and price
	DocumentNo string          `json:"document_no"`
	Total      decimal.Decimal `json:"total"`
	IsActive   *bool           `json:"is_active"`
}

// FetchByID reads a record back from Luca for reconciliation
func (c *Client) FetchByID(ctx context.Context, entityType integration.EntityType, lucaID string) (*integration.LucaRecord, error) {
	path, err := entityPath(entityType)
	if err != nil {
		return nil, err
	}
	op := "FetchByID " + entityType.String()

	body, err := c.doRequest(ctx, op, http.MethodGet, path+"/"+url.PathEscape(lucaID), nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data wireRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, c.schemaError(op, err)
	}

	wire := envelope.Data
	record := &integration.LucaRecord{
		EntityType: entityType,
		LucaID:     wire.ID,
		Code:       wire.Code,
		Name:       wire.Name,
		Price:      wire.Price,
		Stock:      wire.Stock,
		TaxRate:    wire.VATRate,
		IsActive:   wire.IsActive == nil || *wire.IsActive,
	}
	if record.LucaID == "" {
		record.LucaID = lucaID
	}
	if wire.DocumentNo != "" {
		record.Code = wire.DocumentNo
		record.Price = wire.Total
	}
	return record, nil
}

// doRequest performs one authenticated call. A 401 invalidates the cached
// session and the call is replayed once against a fresh login.
func (c *Client) doRequest(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	session, err := c.session(ctx, op, false)
	if err != nil {
		return nil, err
	}

	body, status, retryAfter, err := c.roundTrip(ctx, op, method, path, payload, session)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		session, err = c.session(ctx, op, true)
		if err != nil {
			return nil, err
		}
		body, status, retryAfter, err = c.roundTrip(ctx, op, method, path, payload, session)
		if err != nil {
			return nil, err
		}
	}

	if status >= 400 {
		return nil, c.statusError(op, status, retryAfter, body)
	}
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload any, session string) ([]byte, int, time.Duration, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, 0, c.schemaError(op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, 0, &integration.VendorError{
			System:  integration.SourceSystemLuca,
			Op:      op,
			Message: err.Error(),
			Err:     integration.ErrVendorUnavailable,
		}
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: session})
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, c.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, 0, 0, c.transportError(op, err)
	}
	return body, resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")), nil
}

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	CompanyID string `json:"company_id,omitempty"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
}

// session returns a valid session ID, logging in when the cache is empty,
// expired or force-invalidated.
func (c *Client) session(ctx context.Context, op string, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.sessionID != "" && time.Now().Before(c.expiresAt) {
		return c.sessionID, nil
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + loginPath
	data, err := json.Marshal(loginRequest{
		Username:  c.config.Username,
		Password:  c.config.Password,
		CompanyID: c.config.CompanyID,
	})
	if err != nil {
		return "", c.schemaError(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", c.transportError(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return "", c.transportError(op, err)
	}
	if resp.StatusCode >= 400 {
		// a rejected login is an availability problem for the sync, not
		// a payload defect, so it stays retryable
		return "", &integration.VendorError{
			System:     integration.SourceSystemLuca,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    "login failed: " + vendorMessage(body),
			Err:        integration.ErrVendorUnavailable,
		}
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return "", c.schemaError(op, err)
	}
	if login.SessionID == "" {
		return "", c.schemaError(op, errors.New("login response carries no session ID"))
	}

	c.sessionID = login.SessionID
	c.expiresAt = time.Now().Add(c.config.SessionTTL)
	c.logger.Info("luca session established",
		zap.Time("expires_at", c.expiresAt))
	return c.sessionID, nil
}

func (c *Client) transportError(op string, err error) *integration.VendorError {
	sentinel := integration.ErrVendorUnavailable
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		sentinel = integration.ErrVendorTimeout
	}
	c.logger.Warn("luca request failed",
		zap.String("op", op),
		zap.Error(err))
	return &integration.VendorError{
		System:  integration.SourceSystemLuca,
		Op:      op,
		Message: err.Error(),
		Err:     sentinel,
	}
}

// statusError maps HTTP error statuses. A 401 that survived the re-login
// and any 403 mean the configured credentials are bad, which is an
// operations problem and stays retryable; other 4xx statuses are payload
// rejections that need manual correction.
func (c *Client) statusError(op string, status int, retryAfter time.Duration, body []byte) *integration.VendorError {
	vendorErr := &integration.VendorError{
		System:     integration.SourceSystemLuca,
		Op:         op,
		StatusCode: status,
		Message:    vendorMessage(body),
	}

	switch {
	case status == http.StatusTooManyRequests:
		vendorErr.Err = integration.ErrVendorRateLimited
		vendorErr.RetryAfter = retryAfter
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		vendorErr.Err = integration.ErrVendorUnavailable
	case status >= 500:
		vendorErr.Err = integration.ErrVendorUnavailable
	default:
		vendorErr.Err = integration.ErrVendorRejected
	}

	c.logger.Warn("luca request rejected",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("message", vendorErr.Message))
	return vendorErr
}

func (c *Client) schemaError(op string, err error) *integration.VendorError {
	return &integration.VendorError{
		System:  integration.SourceSystemLuca,
		Op:      op,
		Message: err.Error(),
		Err:     integration.ErrPayloadSchema,
	}
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// vendorMessage extracts a human-readable message from an error body
func vendorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
