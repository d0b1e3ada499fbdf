package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to     string
	toKind string
	amount uint64
	target string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send value to a recipient",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient public key in hex, or a sentinel name.")
	sendCmd.Flags().StringVarP(&toKind, "kind", "k", "pubkey", "Kind of recipient: pubkey or sentinel.")
	sendCmd.Flags().Uint64VarP(&amount, "value", "v", 0, "Value to send.")
	sendCmd.Flags().StringVarP(&target, "node", "n", "", "Id of the node to submit to.")
}

func sendRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	recipient, err := database.ParseRecipient(toKind, to)
	if err != nil {
		log.Fatal(err)
	}

	set, err := fetchUTXOs()
	if err != nil {
		log.Fatal(err)
	}

	utxos, err := toUTXOSet(set)
	if err != nil {
		log.Fatal(err)
	}

	tx, err := w.CreateTransaction(utxos, []database.TxOutput{{Amount: amount, Recipient: recipient}})
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(tx)
	if err != nil {
		log.Fatal(err)
	}

	endpoint := fmt.Sprintf("%s/v1/tx/submit", url)
	if target != "" {
		endpoint += "/" + target
	}

	resp, err := http.Post(endpoint, "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("submit failed: %s: %s", resp.Status, body)
	}

	fmt.Println("Submitted:", tx.ID)
}

// toUTXOSet rebuilds the unspent outputs reported by the node.
func toUTXOSet(set utxoSet) (database.UTXOSet, error) {
	utxos := make(database.UTXOSet, len(set.UTXOs))

	for _, u := range set.UTXOs {
		var key database.UTXOKey
		if err := key.UnmarshalText([]byte(u.Key)); err != nil {
			return nil, err
		}

		recipient, err := database.ParseRecipient(u.Kind, u.Recipient)
		if err != nil {
			return nil, fmt.Errorf("utxo %s: %w", u.Key, err)
		}

		utxos[key] = database.TxOutput{Amount: u.Amount, Recipient: recipient}
	}

	return utxos, nil
}
