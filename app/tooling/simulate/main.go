// This program builds an in-process network, plays the claim and payment
// scenario across it and prints the final chain and UTXO set.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxoledger/business/sim"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/logger"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

var build = "develop"

func main() {
	log, err := logger.New("SIMULATE", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Size       int    `conf:"default:3"`
		Topology   string `conf:"default:mesh"`
		Difficulty uint16 `conf:"default:4"`
		Strict     bool   `conf:"default:false"`
		Amount     uint64 `conf:"default:30"`
		Verbose    bool   `conf:"default:false"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger scenario simulator",
		},
	}

	const prefix = "SIMULATE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	topology, err := sim.ParseTopology(cfg.Topology)
	if err != nil {
		return err
	}

	gen := genesis.Default()
	gen.Difficulty = cfg.Difficulty

	simCfg := sim.Config{
		Size:     cfg.Size,
		Topology: topology,
		Genesis:  gen,
		Strict:   cfg.Strict,
	}
	if cfg.Verbose {
		simCfg.EvHandler = func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
		}
	}

	spinner, _ := pterm.DefaultSpinner.Start("Building network and mining blocks")

	network, err := sim.Build(simCfg)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}

	alice, err := wallet.New()
	if err != nil {
		return err
	}
	bob, err := wallet.New()
	if err != nil {
		return err
	}

	ns, _ := nameservice.New("")
	ns.Add(alice.Recipient(), "alice")
	ns.Add(bob.Recipient(), "bob")

	report, err := network.RunScenario(alice, bob, cfg.Amount)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("%d nodes, %s topology", len(network.Nodes), topology))

	printReport(report, ns, network)

	return nil
}

func printReport(report sim.Report, ns *nameservice.NameService, network *sim.Network) {
	pterm.DefaultSection.Println("Chain")

	for i, block := range report.Blocks {
		data := pterm.TableData{{"tx", "inputs", "outputs"}}
		for _, tx := range block.Transactions() {
			var outs string
			for _, out := range tx.Outputs {
				outs += fmt.Sprintf("%d -> %s  ", out.Amount, ns.Lookup(out.Recipient))
			}
			data = append(data, []string{tx.ID[:16], strconv.Itoa(len(tx.Inputs)), outs})
		}

		table, _ := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()

		body := pterm.Sprintfln("Hash:        %s", block.Hash) +
			pterm.Sprintfln("Previous:    %s", block.Header.PrevBlockHash) +
			pterm.Sprintfln("Merkle Root: %s", block.Header.MerkleRoot) +
			pterm.Sprintfln("Nonce:       %d", block.Header.Nonce) +
			table

		pterm.DefaultBox.WithTitle(pterm.LightYellow(fmt.Sprintf("|BLOCK %d|", i))).WithTitleTopCenter().Println(body)
	}

	pterm.DefaultSection.Println("UTXO Set")

	data := pterm.TableData{{"key", "amount", "recipient"}}
	for _, utxo := range report.UTXOs {
		data = append(data, []string{
			fmt.Sprintf("%s:%d", utxo.Key.TxID[:16], utxo.Key.Index),
			strconv.FormatUint(utxo.Output.Amount, 10),
			ns.Lookup(utxo.Output.Recipient),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	pterm.Info.Printfln("Total: %d", report.Total)

	pterm.DefaultSection.Println("Nodes")
	for _, n := range network.Nodes {
		status := n.Status()
		pterm.Printfln("%s  height %d  tip %s  seen %d", pterm.LightCyan(status.ID), status.LatestBlockNumber, status.LatestBlockHash[:16], len(n.Seen()))
	}

	if !report.Converged {
		pterm.Warning.Println("Nodes did not converge")
		return
	}
	pterm.Success.Println("All nodes converged on the same tip")
}
