package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"hypergate/pkg/confkit"
	"hypergate/pkg/exchange/hyperliquid"
	"hypergate/pkg/precision"
)

// Derives the wallet address from PRIVATE_KEY and probes the account state on
// both networks. Handy when orders come back with signature or margin errors.
func main() {
	confkit.LoadDotenvOnce()

	pk := os.Getenv("PRIVATE_KEY")
	if pk == "" {
		fmt.Println("PRIVATE_KEY not set in env/.env")
		os.Exit(1)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(pk), "0x"))
	if err != nil {
		fmt.Printf("decode private key error: %v\n", err)
		os.Exit(1)
	}
	addr := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	fmt.Printf("Wallet address: %s\n\n", addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, network := range []precision.Network{precision.NetworkTestnet, precision.NetworkMainnet} {
		fmt.Printf("--- %s ---\n", strings.ToUpper(string(network)))
		client := hyperliquid.NewClient(nil, network == precision.NetworkTestnet,
			hyperliquid.WithTimeout(10*time.Second))
		state, err := client.ClearinghouseState(ctx, addr)
		if err != nil {
			fmt.Printf("error: %v\n\n", err)
			continue
		}
		fmt.Printf("Account value: %s\n", state.MarginSummary.AccountValue)
		fmt.Printf("Withdrawable:  %s\n", state.Withdrawable)
		if len(state.AssetPositions) == 0 {
			fmt.Println("No open positions")
		}
		for _, pos := range state.AssetPositions {
			fmt.Printf("Position: %s szi=%s entry=%s\n",
				pos.Position.Coin, pos.Position.Szi, pos.Position.EntryPx)
		}
		fmt.Println()
	}
}
