// Package aggregates defines the write boundaries of the progression domain.
//
// Contracts here carry no persistence or transport detail. Each write method is one atomic unit:
// the ledger, the course progress rows and the XP journal either all change or none do.
package aggregates
