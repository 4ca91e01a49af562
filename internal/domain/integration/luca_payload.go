package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// LucaPayload is a fully translated, Luca-shaped record ready for upsert.
// Payloads are complete or absent: the translator never emits a partial one.
type LucaPayload interface {
	// PayloadEntityType returns the entity type this payload upserts
	PayloadEntityType() EntityType
	// KatanaRef returns the Katana ID the payload was translated from
	KatanaRef() string
	// LucaRef returns the Luca ID for updates, empty for creates
	LucaRef() string
}

// LucaAccountPayload upserts a customer or supplier account in Luca
type LucaAccountPayload struct {
	EntityType  EntityType `json:"-"`
	KatanaID    string     `json:"-"`
	LucaID      string     `json:"luca_id,omitempty"`
	AccountCode string     `json:"account_code"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	TaxNumber   string     `json:"tax_number,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	Country     string     `json:"country,omitempty"`
	PaymentCode string     `json:"payment_code,omitempty"`
	Currency    string     `json:"currency"`
	IsActive    bool       `json:"is_active"`
}

func (p *LucaAccountPayload) PayloadEntityType() EntityType { return p.EntityType }
func (p *LucaAccountPayload) KatanaRef() string             { return p.KatanaID }
func (p *LucaAccountPayload) LucaRef() string               { return p.LucaID }

// LucaStockCardPayload upserts a product stock card in Luca
type LucaStockCardPayload struct {
	KatanaID  string          `json:"-"`
	LucaID    string          `json:"luca_id,omitempty"`
	CardCode  string          `json:"card_code"`
	Name      string          `json:"name"`
	GroupCode string          `json:"group_code"`
	UnitCode  string          `json:"unit_code"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	// VATRate is a fraction (0.18 for 18%)
	VATRate  decimal.Decimal `json:"vat_rate"`
	Stock    decimal.Decimal `json:"stock"`
	IsActive bool            `json:"is_active"`
}

func (p *LucaStockCardPayload) PayloadEntityType() EntityType { return EntityTypeProduct }
func (p *LucaStockCardPayload) KatanaRef() string             { return p.KatanaID }
func (p *LucaStockCardPayload) LucaRef() string               { return p.LucaID }

// LucaInvoiceLine is one line of an invoice payload
type LucaInvoiceLine struct {
	CardCode string          `json:"card_code"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	// VATRate is a fraction
	VATRate       decimal.Decimal `json:"vat_rate"`
	WarehouseCode string          `json:"warehouse_code,omitempty"`
}

// LucaInvoicePayload upserts a sales or purchase invoice in Luca
type LucaInvoicePayload struct {
	EntityType    EntityType        `json:"-"`
	KatanaID      string            `json:"-"`
	LucaID        string            `json:"luca_id,omitempty"`
	DocumentNo    string            `json:"document_no"`
	AccountLucaID string            `json:"account_luca_id"`
	Currency      string            `json:"currency"`
	Total         decimal.Decimal   `json:"total"`
	IssuedAt      time.Time         `json:"issued_at"`
	Lines         []LucaInvoiceLine `json:"lines"`
}

func (p *LucaInvoicePayload) PayloadEntityType() EntityType { return p.EntityType }
func (p *LucaInvoicePayload) KatanaRef() string             { return p.KatanaID }
func (p *LucaInvoicePayload) LucaRef() string               { return p.LucaID }

// LucaStockReceiptPayload posts a stock movement in Luca
type LucaStockReceiptPayload struct {
	KatanaID      string          `json:"-"`
	LucaID        string          `json:"luca_id,omitempty"`
	CardCode      string          `json:"card_code"`
	WarehouseCode string          `json:"warehouse_code"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reference     string          `json:"reference,omitempty"`
	MovedAt       time.Time       `json:"moved_at"`
}

func (p *LucaStockReceiptPayload) PayloadEntityType() EntityType { return EntityTypeStockMovement }
func (p *LucaStockReceiptPayload) KatanaRef() string             { return p.KatanaID }
func (p *LucaStockReceiptPayload) LucaRef() string               { return p.LucaID }
