package solana

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
)

// StubFixture is the on-disk form of a StubProvider's data, used by the CLI
// --stub-data flag for offline runs.
type StubFixture struct {
	Transactions []TransactionRecord       `json:"transactions"`
	Balances     map[Pubkey]decimal.Decimal `json:"balances,omitempty"`
}

// Load adds every fixture transaction and balance to the stub.
func (s *StubProvider) Load(r io.Reader) error {
	var fx StubFixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("stub: decode fixture: %w", err)
	}
	for _, tx := range fx.Transactions {
		s.AddTransaction(tx)
	}
	for addr, bal := range fx.Balances {
		s.SetBalance(addr, bal)
	}
	return nil
}

// LoadFile is Load on the named file.
func (s *StubProvider) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("stub: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}
