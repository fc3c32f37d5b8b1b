// Package main is the potree-converter command itself.
package main

import (
	"log"
	"os"

	"go.viam.com/potree/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
