package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate checks normalized records against their schema. Manual payload
// corrections go through the same rules as records fetched from Katana.
var validate = validator.New()

// Record is a normalized Katana record. Vendor adapters produce these once
// at the system boundary; nothing deeper in the core ever sees raw vendor
// JSON or branches on field-name casing.
type Record interface {
	// RecordEntityType returns the entity type of this record
	RecordEntityType() EntityType
	// SourceID returns the Katana identifier of this record
	SourceID() string
	// Label returns a human-readable identifier for logs and listings
	Label() string
	// ModifiedAt returns the Katana-side modification time (watermark input)
	ModifiedAt() time.Time
}

// ---------------------------------------------------------------------------
// Normalized record types
// ---------------------------------------------------------------------------

// Customer is a normalized Katana contact
type Customer struct {
	KatanaID    string    `json:"katana_id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone"`
	TaxNumber   string    `json:"tax_number"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	PaymentTerm string    `json:"payment_term"`
	Currency    string    `json:"currency" validate:"omitempty,len=3"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Customer) RecordEntityType() EntityType { return EntityTypeCustomer }
func (c *Customer) SourceID() string             { return c.KatanaID }
func (c *Customer) Label() string                { return c.Name }
func (c *Customer) ModifiedAt() time.Time        { return c.UpdatedAt }

// Supplier is a normalized Katana supplier
type Supplier struct {
	KatanaID    string    `json:"katana_id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone"`
	TaxNumber   string    `json:"tax_number"`
	Address     string    `json:"address"`
	PaymentTerm string    `json:"payment_term"`
	Currency    string    `json:"currency" validate:"omitempty,len=3"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Supplier) RecordEntityType() EntityType { return EntityTypeSupplier }
func (s *Supplier) SourceID() string             { return s.KatanaID }
func (s *Supplier) Label() string                { return s.Name }
func (s *Supplier) ModifiedAt() time.Time        { return s.UpdatedAt }

// Product is a normalized Katana variant.
// TaxRatePercent is a percentage (18 means 18%); the translator converts to
// the fractional form Luca expects.
type Product struct {
	KatanaID       string          `json:"katana_id" validate:"required"`
	SKU            string          `json:"sku" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	Category       string          `json:"category"`
	UnitOfMeasure  string          `json:"unit_of_measure"`
	SalesPrice     decimal.Decimal `json:"sales_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	OnHand         decimal.Decimal `json:"on_hand"`
	IsActive       bool            `json:"is_active"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *Product) RecordEntityType() EntityType { return EntityTypeProduct }
func (p *Product) SourceID() string             { return p.KatanaID }
func (p *Product) Label() string                { return p.SKU }
func (p *Product) ModifiedAt() time.Time        { return p.UpdatedAt }

// OrderLine is one line of a sales or purchase order
type OrderLine struct {
	SKU            string          `json:"sku" validate:"required"`
	ProductName    string          `json:"product_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	LocationID     string          `json:"location_id"`
}

// SalesOrder is a normalized Katana sales order
type SalesOrder struct {
	KatanaID         string          `json:"katana_id" validate:"required"`
	OrderNo          string          `json:"order_no" validate:"required"`
	CustomerKatanaID string          `json:"customer_katana_id" validate:"required"`
	Currency         string          `json:"currency" validate:"omitempty,len=3"`
	Status           string          `json:"status"`
	Total            decimal.Decimal `json:"total"`
	Lines            []OrderLine     `json:"lines" validate:"dive"`
	OrderedAt        time.Time       `json:"ordered_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (o *SalesOrder) RecordEntityType() EntityType { return EntityTypeSalesOrder }
func (o *SalesOrder) SourceID() string             { return o.KatanaID }
func (o *SalesOrder) Label() string                { return o.OrderNo }
func (o *SalesOrder) ModifiedAt() time.Time        { return o.UpdatedAt }

// PurchaseOrder is a normalized Katana purchase order
type PurchaseOrder struct {
	KatanaID         string          `json:"katana_id" validate:"required"`
	OrderNo          string          `json:"order_no" validate:"required"`
	SupplierKatanaID string          `json:"supplier_katana_id" validate:"required"`
	Currency         string          `json:"currency" validate:"omitempty,len=3"`
	Status           string          `json:"status"`
	Total            decimal.Decimal `json:"total"`
	Lines            []OrderLine     `json:"lines" validate:"dive"`
	OrderedAt        time.Time       `json:"ordered_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (o *PurchaseOrder) RecordEntityType() EntityType { return EntityTypePurchaseOrder }
func (o *PurchaseOrder) SourceID() string             { return o.KatanaID }
func (o *PurchaseOrder) Label() string                { return o.OrderNo }
func (o *PurchaseOrder) ModifiedAt() time.Time        { return o.UpdatedAt }

// StockMovement is a normalized Katana stock adjustment or transfer.
// Quantity is signed: positive for receipts, negative for issues.
type StockMovement struct {
	KatanaID     string          `json:"katana_id" validate:"required"`
	SKU          string          `json:"sku" validate:"required"`
	LocationID   string          `json:"location_id"`
	MovementType string          `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reference    string          `json:"reference"`
	MovedAt      time.Time       `json:"moved_at"`
}

func (m *StockMovement) RecordEntityType() EntityType { return EntityTypeStockMovement }
func (m *StockMovement) SourceID() string             { return m.KatanaID }
func (m *StockMovement) Label() string                { return m.SKU }
func (m *StockMovement) ModifiedAt() time.Time        { return m.MovedAt }

// ---------------------------------------------------------------------------
// Payload snapshot encoding
// ---------------------------------------------------------------------------

// EncodeRecord serializes a normalized record for storage as a FailedRecord
// payload snapshot.
func EncodeRecord(rec Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPayloadSchema, err)
	}
	return string(data), nil
}

// DecodeRecord parses a payload snapshot back into a typed record and
// validates it against the schema. Corrections that fail validation are
// rejected rather than coerced.
func DecodeRecord(entityType EntityType, payload []byte) (Record, error) {
	var rec Record
	switch entityType {
	case EntityTypeCustomer:
		rec = &Customer{}
	case EntityTypeSupplier:
		rec = &Supplier{}
	case EntityTypeProduct:
		rec = &Product{}
	case EntityTypeSalesOrder:
		rec = &SalesOrder{}
	case EntityTypePurchaseOrder:
		rec = &PurchaseOrder{}
	case EntityTypeStockMovement:
		rec = &StockMovement{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntityType, entityType)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadSchema, err)
	}
	if err := validate.Struct(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadSchema, err)
	}
	return rec, nil
}
