// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain types to keep the domain layer free
// from ORM concerns.
//
// Every domain record (orders, membership applications, membership types and
// file assets) is stored as one row of the documents table; the record body
// lives in a JSON column and only the fields the store filters on in SQL are
// promoted to columns.
package models
