package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var url string

type utxo struct {
	Key       string `json:"key"`
	Amount    uint64 `json:"amount"`
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
}

type utxoSet struct {
	LatestBlock string `json:"latest_block"`
	UTXOs       []utxo `json:"utxos"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Address:", w.Address())

	set, err := fetchUTXOs()
	if err != nil {
		log.Fatal(err)
	}

	utxos, err := toUTXOSet(set)
	if err != nil {
		log.Fatal(err)
	}

	for _, u := range utxos.Owned(w.Recipient()) {
		fmt.Printf("  %s: %d\n", u.Key, u.Output.Amount)
	}

	fmt.Println("Latest Block:", set.LatestBlock)
	fmt.Println("Balance:", w.Balance(utxos))
}

func fetchUTXOs() (utxoSet, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/utxos", url))
	if err != nil {
		return utxoSet{}, err
	}
	defer resp.Body.Close()

	var set utxoSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return utxoSet{}, err
	}

	return set, nil
}
