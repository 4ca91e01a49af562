// Package integration contains the core domain for synchronizing records
// between Katana (inventory/manufacturing, the source system) and Luca
// (accounting/ERP, the target system): sync state tracking, code mapping,
// payload translation, failure capture and recovery, cross-system
// reconciliation, and the order approval workflow.
package integration
