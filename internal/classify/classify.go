// Package classify answers whether an address or label belongs to a known
// non-personal entity (exchange, program, bridge, marketplace, bot).
package classify

import (
	"strings"
	"sync"
)

// Category groups known entities.
type Category string

const (
	CategoryCEX    Category = "cex"
	CategoryDEX    Category = "dex"
	CategoryNFT    Category = "nft"
	CategoryDeFi   Category = "defi"
	CategorySystem Category = "system"
	CategoryBridge Category = "bridge"
	CategoryBot    Category = "bot"
	CategoryCustom Category = "custom"
)

// Entity is a named non-personal address.
type Entity struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

var (
	mu     sync.RWMutex
	index  map[string]Entity
	labels map[string]string
)

func init() {
	index = make(map[string]Entity, 128)
	labels = make(map[string]string)
	// Later tables win on overlap.
	for _, t := range []struct {
		cat   Category
		table map[string]string
	}{
		{CategoryCEX, cexWallets},
		{CategoryDEX, dexPrograms},
		{CategoryNFT, nftPrograms},
		{CategoryDeFi, defiPrograms},
		{CategorySystem, systemPrograms},
		{CategoryBridge, bridgePrograms},
		{CategoryBot, botAddresses},
	} {
		for addr, name := range t.table {
			index[addr] = Entity{Name: name, Category: t.cat}
		}
	}
}

// Register adds an entity at runtime (e.g. from configuration).
// Call it during startup, before analyses run.
func Register(address, name string, category Category) {
	mu.Lock()
	defer mu.Unlock()
	index[address] = Entity{Name: name, Category: category}
}

// SetLabel attaches a free-text label to an address without making it a
// known entity. The label is checked by IsExcludedLabel only.
func SetLabel(address, label string) {
	mu.Lock()
	defer mu.Unlock()
	labels[address] = label
}

// Label returns the label of address: an explicit SetLabel first, then the
// known entity name, else "".
func Label(address string) string {
	mu.RLock()
	defer mu.RUnlock()
	if l, ok := labels[address]; ok {
		return l
	}
	return index[address].Name
}

// Count returns the number of known entities.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(index)
}

// Classify returns the known entity for address.
func Classify(address string) (Entity, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := index[address]
	return e, ok
}

// IsExcludedAddress reports an exact match against the known-entity tables.
func IsExcludedAddress(address string) bool {
	_, ok := Classify(address)
	return ok
}

// CEXName returns the exchange name when address is a known exchange wallet.
func CEXName(address string) (string, bool) {
	e, ok := Classify(address)
	if !ok || e.Category != CategoryCEX {
		return "", false
	}
	return e.Name, true
}

// IsLikelyProgram is a heuristic for program and sysvar IDs.
func IsLikelyProgram(address string) bool {
	if IsExcludedAddress(address) {
		return true
	}
	for _, prefix := range programPrefixes {
		if strings.HasPrefix(address, prefix) {
			return true
		}
	}
	return strings.Count(address, "1") > 10
}

// IsExcludedLabel reports whether a free-text label names a non-personal entity.
func IsExcludedLabel(label string) bool {
	if label == "" {
		return false
	}
	lower := strings.ToLower(label)
	for _, pattern := range excludedLabelPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Excluded is the classification gate applied to every discovered
// counterparty before spam filtering.
func Excluded(address, label string) bool {
	return IsLikelyProgram(address) || IsExcludedLabel(label)
}
