package main

import "github.com/saturnino-fabrica-de-software/vigia/internal/cli"

func main() {
	cli.Execute()
}
