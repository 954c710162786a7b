// Package models holds the GORM row types behind the repositories. Domain
// types carry no tags; each model has FromDomain and ToDomain mappers, and
// quantities are decimal(18,4) columns mapped to shopspring/decimal.
//
// Ledger rows are insert-only. Material, acquisition and plan rows carry a
// version column used for optimistic writes.
package models
