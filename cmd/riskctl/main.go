package main

import "dropout-risk-service/internal/adapters/primary/cli"

func main() {
	cli.Execute()
}
