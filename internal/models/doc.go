// Package models defines the records the ledger reads from and writes to storage.
//
// # Records
//
//   - Group: a named set of members that expenses belong to
//   - Member: a user's membership in one group
//   - Expense: a shared cost paid by one member, split among several
//   - Split: one member's share of one expense
//   - Settlement: a payment between two members that reduces what one owes the other
//
// # Design Principles
//
// 1. **Integer cents**: every amount is a money.Money, never a float
// 2. **IDs over pointers**: records reference each other by ID strings
// 3. **Balances are derived**: there is no Balance record; see package calculator
package models
