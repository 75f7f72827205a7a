package aggregates

import (
	"fmt"
	"strings"
)

// Contract declares the write boundary of an aggregate: the lock namespaces its writes may
// serialize on. Every write runs in a transaction the aggregate opens itself.
type Contract struct {
	Name string
	// LockPrefixes are the key namespaces the aggregate may lock, such as "ledger:".
	LockPrefixes []string
	// TableReads marks aggregates whose list and read-model queries stay on the table repos.
	TableReads bool
	Notes      string
}

// Aggregate is implemented by every aggregate.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("aggregate contract without a name")
	}
	if len(c.LockPrefixes) == 0 {
		return fmt.Errorf("aggregate %s declares no lock namespaces", c.Name)
	}
	for _, p := range c.LockPrefixes {
		if !strings.HasSuffix(p, ":") || len(strings.TrimSpace(p)) < 2 {
			return fmt.Errorf("aggregate %s: lock namespace %q must look like \"name:\"", c.Name, p)
		}
	}
	return nil
}

func (c Contract) Covers(key string) bool {
	for _, p := range c.LockPrefixes {
		if strings.HasPrefix(key, p) && len(key) > len(p) {
			return true
		}
	}
	return false
}

// CheckKeys reports the first key outside the contract's lock namespaces.
func (c Contract) CheckKeys(keys []string) error {
	for _, k := range keys {
		if !c.Covers(k) {
			return fmt.Errorf("aggregate %s may not lock %q", c.Name, k)
		}
	}
	return nil
}
