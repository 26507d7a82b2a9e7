package precision

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Network selects which tier table applies.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// Valid reports whether the network name is one the gateway knows.
func (n Network) Valid() bool {
	return n == NetworkMainnet || n == NetworkTestnet
}

// MarginTier is one leverage band of a symbol's margin schedule.
type MarginTier struct {
	LowerBound  float64 `yaml:"lowerBound"`
	MaxLeverage int     `yaml:"maxLeverage"`
}

//go:embed tiers.yaml
var tiersYAML []byte

type tierFile struct {
	Mainnet map[string][]MarginTier `yaml:"mainnet"`
	Testnet map[string][]MarginTier `yaml:"testnet"`
	Default []MarginTier            `yaml:"default"`
}

var tierTables = mustLoadTiers()

func mustLoadTiers() tierFile {
	var file tierFile
	if err := yaml.Unmarshal(tiersYAML, &file); err != nil {
		panic(fmt.Sprintf("precision: parse tiers.yaml: %v", err))
	}
	for network, table := range map[string]map[string][]MarginTier{
		"mainnet": file.Mainnet,
		"testnet": file.Testnet,
	} {
		for symbol, tiers := range table {
			if err := validateTiers(tiers); err != nil {
				panic(fmt.Sprintf("precision: %s/%s: %v", network, symbol, err))
			}
		}
	}
	if err := validateTiers(file.Default); err != nil {
		panic(fmt.Sprintf("precision: default tiers: %v", err))
	}
	return file
}

func validateTiers(tiers []MarginTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("empty tier list")
	}
	if tiers[0].LowerBound != 0 {
		return fmt.Errorf("first tier lowerBound must be 0")
	}
	if !sort.SliceIsSorted(tiers, func(i, j int) bool {
		return tiers[i].LowerBound < tiers[j].LowerBound
	}) {
		return fmt.Errorf("tiers must be ordered by lowerBound")
	}
	for _, tier := range tiers {
		if tier.MaxLeverage <= 0 {
			return fmt.Errorf("maxLeverage must be positive")
		}
	}
	return nil
}

// MarginTiers returns the tier schedule for a symbol on the given network,
// ordered by increasing lowerBound. Unlisted symbols get the default schedule.
func MarginTiers(symbol string, network Network) []MarginTier {
	table := tierTables.Mainnet
	if network == NetworkTestnet {
		table = tierTables.Testnet
	}
	if tiers, ok := table[Canonical(symbol)]; ok {
		return append([]MarginTier(nil), tiers...)
	}
	return append([]MarginTier(nil), tierTables.Default...)
}

// MaintenanceMarginFraction returns the scalar fallback maintenance rate for a
// symbol: 1/(2*maxLeverage) of its top leverage tier, or 1/20 when the symbol
// is wholly unknown.
func MaintenanceMarginFraction(symbol string, network Network) float64 {
	tiers := MarginTiers(symbol, network)
	maxLev := 0
	for _, tier := range tiers {
		if tier.MaxLeverage > maxLev {
			maxLev = tier.MaxLeverage
		}
	}
	if maxLev <= 0 {
		return 1.0 / 20.0
	}
	return 1.0 / float64(2*maxLev)
}
