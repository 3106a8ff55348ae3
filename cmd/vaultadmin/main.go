package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/covault/covault/api/sealhandler"
	"github.com/covault/covault/api/secretshandler"
)

var serverURLFlag = &cli.StringFlag{
	Name:  "server",
	Value: "http://127.0.0.1:8080",
	Usage: "vault server base URL",
}

func main() {
	app := &cli.App{
		Name:  "vaultadmin",
		Usage: "Operate a covault server",
		Flags: []cli.Flag{serverURLFlag},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show the vault seal status",
				Action: func(cCtx *cli.Context) error {
					status, err := adminClient(cCtx).Status()
					if err != nil {
						return err
					}
					fmt.Printf("initialized: %v\nsealed: %v\nprogress: %d/%d (of %d shares)\n",
						status.Initialized, status.Sealed, status.Progress, status.Threshold, status.TotalShares)
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Initialize the vault and print the share tokens",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "total-shares", Value: 5, Usage: "number of shares to generate"},
					&cli.IntFlag{Name: "threshold", Value: 3, Usage: "shares required to unseal"},
				},
				Action: func(cCtx *cli.Context) error {
					resp, err := adminClient(cCtx).Initialize(cCtx.Int("total-shares"), cCtx.Int("threshold"))
					if err != nil {
						return err
					}
					fmt.Printf("Vault initialized: %d shares, threshold %d\n", resp.TotalShares, resp.Threshold)
					fmt.Println("Distribute these share tokens and store them securely; they are shown exactly once:")
					for _, token := range resp.Shares {
						fmt.Println(" ", token)
					}
					return nil
				},
			},
			{
				Name:      "unseal",
				Usage:     "Submit one share token toward unsealing",
				ArgsUsage: "<share-token>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one share token argument")
					}
					status, err := adminClient(cCtx).Unseal(cCtx.Args().First())
					if err != nil {
						return err
					}
					if status.Sealed {
						fmt.Printf("Share accepted: progress %d/%d\n", status.Progress, status.Threshold)
					} else {
						fmt.Println("Vault unsealed")
					}
					return nil
				},
			},
			{
				Name:  "seal",
				Usage: "Seal the vault",
				Action: func(cCtx *cli.Context) error {
					if _, err := adminClient(cCtx).Seal(); err != nil {
						return err
					}
					fmt.Println("Vault sealed")
					return nil
				},
			},
			{
				Name:      "put",
				Usage:     "Store a secret (value read from stdin)",
				ArgsUsage: "<name>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one secret name argument")
					}
					value, err := readAllStdin()
					if err != nil {
						return err
					}
					return secretsClient(cCtx).Put(cCtx.Args().First(), value)
				},
			},
			{
				Name:      "get",
				Usage:     "Fetch a secret and print it to stdout",
				ArgsUsage: "<name>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one secret name argument")
					}
					value, err := secretsClient(cCtx).Get(cCtx.Args().First())
					if err != nil {
						return err
					}
					os.Stdout.Write(value)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a secret",
				ArgsUsage: "<name>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one secret name argument")
					}
					return secretsClient(cCtx).Delete(cCtx.Args().First())
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func adminClient(cCtx *cli.Context) *sealhandler.Client {
	return sealhandler.NewClient(cCtx.String(serverURLFlag.Name))
}

func secretsClient(cCtx *cli.Context) *secretshandler.Client {
	return secretshandler.NewClient(cCtx.String(serverURLFlag.Name))
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
