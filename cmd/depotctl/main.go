package main

import "depot-backend/internal/cli"

func main() {
	cli.Execute()
}
