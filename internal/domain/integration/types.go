package integration

// ---------------------------------------------------------------------------
// EntityType
// ---------------------------------------------------------------------------

// EntityType identifies the class of record being synchronized
type EntityType string

const (
	// EntityTypeCustomer represents Katana contacts synced as Luca accounts
	EntityTypeCustomer EntityType = "CUSTOMER"
	// EntityTypeProduct represents Katana variants synced as Luca stock cards
	EntityTypeProduct EntityType = "PRODUCT"
	// EntityTypeSupplier represents Katana suppliers synced as Luca vendor accounts
	EntityTypeSupplier EntityType = "SUPPLIER"
	// EntityTypeSalesOrder represents Katana sales orders synced as Luca invoices
	EntityTypeSalesOrder EntityType = "SALES_ORDER"
	// EntityTypePurchaseOrder represents Katana purchase orders synced as Luca purchase invoices
	EntityTypePurchaseOrder EntityType = "PURCHASE_ORDER"
	// EntityTypeStockMovement represents Katana stock adjustments synced as Luca stock receipts
	EntityTypeStockMovement EntityType = "STOCK_MOVEMENT"
)

// AllEntityTypes lists every syncable entity type in dependency order:
// master data first, then documents that reference it.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityTypeCustomer,
		EntityTypeSupplier,
		EntityTypeProduct,
		EntityTypeSalesOrder,
		EntityTypePurchaseOrder,
		EntityTypeStockMovement,
	}
}

// IsValid returns true if the entity type is valid
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeCustomer, EntityTypeProduct, EntityTypeSupplier,
		EntityTypeSalesOrder, EntityTypePurchaseOrder, EntityTypeStockMovement:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType
func (t EntityType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// SourceSystem
// ---------------------------------------------------------------------------

// SourceSystem identifies which side of the integration a record or
// correction originates from.
type SourceSystem string

const (
	// SourceSystemKatana is the inventory/manufacturing system (sync origin)
	SourceSystemKatana SourceSystem = "KATANA"
	// SourceSystemLuca is the accounting/ERP system (sync target)
	SourceSystemLuca SourceSystem = "LUCA"
)

// IsValid returns true if the source system is valid
func (s SourceSystem) IsValid() bool {
	return s == SourceSystemKatana || s == SourceSystemLuca
}

// String returns the string representation of SourceSystem
func (s SourceSystem) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncStatus
// ---------------------------------------------------------------------------

// SyncStatus represents the synchronization state of a mapping
type SyncStatus string

const (
	// SyncStatusNotSynced indicates no successful sync has happened yet
	SyncStatusNotSynced SyncStatus = "NOT_SYNCED"
	// SyncStatusSynced indicates the last sync attempt succeeded
	SyncStatusSynced SyncStatus = "SYNCED"
	// SyncStatusError indicates the last sync attempt failed
	SyncStatusError SyncStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusNotSynced, SyncStatusSynced, SyncStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// MappingType
// ---------------------------------------------------------------------------

// MappingType identifies a class of code mapping between the two systems
type MappingType string

const (
	// MappingTypeCategory maps Katana product categories to Luca account groups
	MappingTypeCategory MappingType = "CATEGORY"
	// MappingTypeTaxRate maps Katana tax rate names to Luca VAT codes
	MappingTypeTaxRate MappingType = "TAX_RATE"
	// MappingTypeUnitOfMeasure maps Katana units to Luca unit codes
	MappingTypeUnitOfMeasure MappingType = "UOM"
	// MappingTypeWarehouse maps Katana locations to Luca warehouse codes
	MappingTypeWarehouse MappingType = "WAREHOUSE"
	// MappingTypePaymentTerm maps Katana payment terms to Luca payment codes
	MappingTypePaymentTerm MappingType = "PAYMENT_TERM"
)

// IsValid returns true if the mapping type is valid
func (t MappingType) IsValid() bool {
	switch t {
	case MappingTypeCategory, MappingTypeTaxRate, MappingTypeUnitOfMeasure,
		MappingTypeWarehouse, MappingTypePaymentTerm:
		return true
	default:
		return false
	}
}

// String returns the string representation of MappingType
func (t MappingType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// IssueSeverity
// ---------------------------------------------------------------------------

// IssueSeverity classifies a reconciliation discrepancy
type IssueSeverity string

const (
	// SeverityCritical marks issues that block accounting (missing records)
	SeverityCritical IssueSeverity = "CRITICAL"
	// SeverityWarning marks value drift that needs correction (price, stock)
	SeverityWarning IssueSeverity = "WARNING"
	// SeverityInfo marks cosmetic differences (name casing, descriptions)
	SeverityInfo IssueSeverity = "INFO"
)

// String returns the string representation of IssueSeverity
func (s IssueSeverity) String() string {
	return string(s)
}
