package main

import "github.com/nimburion/notify/pkg/cli"

func main() {
	cli.Execute(cli.NewCommand(cli.CommandOptions{
		Name: "notifyctl",
	}))
}
