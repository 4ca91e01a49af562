package katana

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
	"time"

	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// Client talks to the Katana REST API and normalizes its records at the
// boundary. It implements integration.SourceClient.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Katana API client
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

var _ integration.SourceClient = (*Client)(nil)

const stockAdjustmentsPath = "/api/stock/adjustments"

// collectionPath maps an entity type to its Katana collection endpoint
func collectionPath(entityType integration.EntityType) (string, error) {
	switch entityType {
	case integration.EntityTypeCustomer:
		return "/api/customers", nil
	case integration.EntityTypeSupplier:
		return "/api/suppliers", nil
	case integration.EntityTypeProduct:
		return "/api/products", nil
	case integration.EntityTypeSalesOrder:
		return "/api/sales-orders", nil
	case integration.EntityTypePurchaseOrder:
		return "/api/purchase-orders", nil
	case integration.EntityTypeStockMovement:
		return "/api/stock/movements", nil
	default:
		return "", fmt.Errorf("%w: %s", integration.ErrInvalidEntityType, entityType)
	}
}

// FetchChanged returns records of one entity type modified since the
// watermark. A zero watermark fetches the full collection.
func (c *Client) FetchChanged(ctx context.Context, entityType integration.EntityType, since time.Time) ([]integration.Record, error) {
	path, err := collectionPath(entityType)
	if err != nil {
		return nil, err
	}
	op := "FetchChanged " + entityType.String()

	query := url.Values{}
	if !since.IsZero() {
		query.Set("updated_after", since.UTC().Format(time.RFC3339))
	}

	body, err := c.doRequest(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecordList(entityType, body)
	if err != nil {
		return nil, c.schemaError(op, err)
	}

	c.logger.Debug("fetched changed records",
		zap.String("entity_type", entityType.String()),
		zap.Time("since", since),
		zap.Int("count", len(records)))
	return records, nil
}

// FetchByID returns a single record by its Katana ID
func (c *Client) FetchByID(ctx context.Context, entityType integration.EntityType, katanaID string) (integration.Record, error) {
	path, err := collectionPath(entityType)
	if err != nil {
		return nil, err
	}
	op := "FetchByID " + entityType.String()

	body, err := c.doRequest(ctx, op, http.MethodGet, path+"/"+url.PathEscape(katanaID), nil, nil)
	if err != nil {
		return nil, err
	}

	record, err := decodeRecordDetail(entityType, body)
	if err != nil {
		return nil, c.schemaError(op, err)
	}
	return record, nil
}

// MutateStock applies a stock increment in Katana
func (c *Client) MutateStock(ctx context.Context, adj integration.StockAdjustment) (*integration.StockMutationResult, error) {
	op := "MutateStock"
	req := stockAdjustmentRequest{
		SKU:         adj.SKU,
		Quantity:    adj.Quantity,
		LocationID:  adj.LocationID,
		ProductName: adj.ProductName,
		SalesPrice:  adj.SalesPrice,
		Reference:   adj.Reference,
	}

	body, err := c.doRequest(ctx, op, http.MethodPost, stockAdjustmentsPath, nil, req)
	if err != nil {
		return nil, err
	}

	var envelope detailEnvelope[wireStockMutation]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, c.schemaError(op, err)
	}

	c.logger.Info("stock mutation applied",
		zap.String("sku", adj.SKU),
		zap.String("quantity", adj.Quantity.String()),
		zap.String("reference", adj.Reference))
	return &integration.StockMutationResult{
		Success:  envelope.Data.Success,
		Message:  envelope.Data.Message,
		NewStock: envelope.Data.NewStock,
	}, nil
}

// doRequest performs one HTTP call and maps every failure onto the vendor
// error taxonomy. Response bodies are capped at MaxResponseBytes.
func (c *Client) doRequest(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, c.schemaError(op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, &integration.VendorError{
			System:  integration.SourceSystemKatana,
			Op:      op,
			Message: err.Error(),
			Err:     integration.ErrVendorUnavailable,
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, c.transportError(op, err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.statusError(op, resp, body)
	}
	return body, nil
}

// transportError maps connection-level failures. Deadline and timeout
// failures are separated from the rest because the retry sweep treats both
// as retryable but operators triage them differently.
func (c *Client) transportError(op string, err error) *integration.VendorError {
	sentinel := integration.ErrVendorUnavailable
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		sentinel = integration.ErrVendorTimeout
	}
	c.logger.Warn("katana request failed",
		zap.String("op", op),
		zap.Error(err))
	return &integration.VendorError{
		System:  integration.SourceSystemKatana,
		Op:      op,
		Message: err.Error(),
		Err:     sentinel,
	}
}

// statusError maps HTTP error statuses onto the taxonomy: 429 is rate
// limiting with the vendor's Retry-After hint, 5xx is unavailability and
// any other 4xx is a payload rejection that needs manual correction.
func (c *Client) statusError(op string, resp *http.Response, body []byte) *integration.VendorError {
	vendorErr := &integration.VendorError{
		System:     integration.SourceSystemKatana,
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    vendorMessage(body),
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		vendorErr.Err = integration.ErrVendorRateLimited
		vendorErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500:
		vendorErr.Err = integration.ErrVendorUnavailable
	default:
		vendorErr.Err = integration.ErrVendorRejected
	}

	c.logger.Warn("katana request rejected",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.String("message", vendorErr.Message))
	return vendorErr
}

func (c *Client) schemaError(op string, err error) *integration.VendorError {
	return &integration.VendorError{
		System:  integration.SourceSystemKatana,
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

func decodeRecordList(entityType integration.EntityType, body []byte) ([]integration.Record, error) {
	switch entityType {
	case integration.EntityTypeCustomer:
		return decodeList[wireCustomer](body)
	case integration.EntityTypeSupplier:
		return decodeList[wireSupplier](body)
	case integration.EntityTypeProduct:
		return decodeList[wireVariant](body)
	case integration.EntityTypeSalesOrder:
		return decodeList[wireSalesOrder](body)
	case integration.EntityTypePurchaseOrder:
		return decodeList[wirePurchaseOrder](body)
	case integration.EntityTypeStockMovement:
		return decodeList[wireStockMovement](body)
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrInvalidEntityType, entityType)
	}
}

func decodeRecordDetail(entityType integration.EntityType, body []byte) (integration.Record, error) {
	switch entityType {
	case integration.EntityTypeCustomer:
		return decodeDetail[wireCustomer](body)
	case integration.EntityTypeSupplier:
		return decodeDetail[wireSupplier](body)
	case integration.EntityTypeProduct:
		return decodeDetail[wireVariant](body)
	case integration.EntityTypeSalesOrder:
		return decodeDetail[wireSalesOrder](body)
	case integration.EntityTypePurchaseOrder:
		return decodeDetail[wirePurchaseOrder](body)
	case integration.EntityTypeStockMovement:
		return decodeDetail[wireStockMovement](body)
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrInvalidEntityType, entityType)
	}
}

type domainConvertible interface {
	toDomain() integration.Record
}

func decodeList[T domainConvertible](body []byte) ([]integration.Record, error) {
	var envelope listEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	records := make([]integration.Record, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		records = append(records, item.toDomain())
	}
	return records, nil
}

func decodeDetail[T domainConvertible](body []byte) (integration.Record, error) {
	var envelope detailEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.toDomain(), nil
}
