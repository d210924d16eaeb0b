// Package gas implements the session resource budget: a Plan that caps
// spending across seven independent dimensions, and a Gas ledger that
// accumulates what a session has used so far.
//
// A Plan is validated once at construction. Checking a ledger against it
// afterwards is a handful of integer comparisons, so the engine can afford
// to do it after every statement.
package gas
