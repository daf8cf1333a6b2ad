// Command useropvalidator loads a PackedUserOperation from a JSON file,
// runs it through the structural validator and the simulation driver, and
// prints the result.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/aa-bundler/useropvalidator/jsonrpc"
	"github.com/aa-bundler/useropvalidator/reputation"
	"github.com/aa-bundler/useropvalidator/simulation"
	"github.com/aa-bundler/useropvalidator/validation"
)

var (
	fileFlag = &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "path to a JSON file containing a PackedUserOperation",
		Required: true,
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug logging",
	}
)

func main() {
	app := &cli.App{
		Name:   "useropvalidator",
		Usage:  "simulate ERC-4337 v0.7 validation-phase rules against a PackedUserOperation",
		Flags:  []cli.Flag{fileFlag, verboseFlag},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("useropvalidator failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.Bool(verboseFlag.Name) {
		log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelDebug, true)))
	}

	raw, err := loadUserOperation(ctx.String(fileFlag.Name))
	if err != nil {
		return fmt.Errorf("loading user operation: %w", err)
	}

	env, err := simulation.NewEnvironment()
	if err != nil {
		return fmt.Errorf("building simulation environment: %w", err)
	}
	driver := validation.NewDriver(env, reputation.NewInMemoryStore())
	api := jsonrpc.NewAPI(driver)

	result, rpcErr := api.ValidateUserOperation(raw)
	if rpcErr != nil && result == nil {
		return rpcErr
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(encoded))

	if rpcErr != nil {
		os.Exit(1)
	}
	return nil
}

func loadUserOperation(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
