// Package models defines the core domain models for DividaFacil.
//
// # Models
//
//   - Group: people who share expenses, plus the derived balance Ledger
//   - Expense: a payment made by one member on behalf of several participants
//   - Installment: one calendar-monthly period of an installment expense
//   - Transaction: a suggested settling payment between two members
//   - User: a registered account; participants are referenced by user ID
//
// # Design Principles
//
// 1. **Cents everywhere**: every amount is a money.Money (integer cents)
// 2. **IDs, not pointers**: relationships between records use ID strings
// 3. **Derived data is rebuilt**: balances are recomputed from expenses, never patched
package models
