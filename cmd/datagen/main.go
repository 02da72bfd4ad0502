package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/avro07/spay/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users     = flag.Int("users", cfg.NumUsers, "number of personal accounts to generate")
		agents    = flag.Int("agents", cfg.NumAgents, "number of cash-out agents to generate")
		merchants = flag.Int("merchants", cfg.NumMerchants, "number of merchants to generate")
		contacts  = flag.Int("contacts", cfg.NumContacts, "number of personal contacts to generate")
		history   = flag.Int("history", cfg.HistoryPerUser, "pre-existing history records per personal account")
		pin       = flag.String("pin", cfg.PIN, "PIN assigned to every generated account")
		seed      = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output    = flag.String("output", "seed-data/seed.json", "path of the seed file to write")
		stdout    = flag.Bool("stdout", false, "write the seed to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:       *users,
		NumAgents:      *agents,
		NumMerchants:   *merchants,
		NumContacts:    *contacts,
		HistoryPerUser: *history,
		PIN:            *pin,
		Seed:           *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *stdout {
		if err := generator.EncodeSeed(os.Stdout, dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write seed to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteSeed(dataset, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write seed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d accounts, %d contacts and %d history records into %s\n",
		len(dataset.Accounts), len(dataset.Contacts), len(dataset.History), *output)
}
