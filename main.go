package main

import "github.com/arimxyer/vaultkeeper/cmd"

func main() {
	cmd.Execute()
}
