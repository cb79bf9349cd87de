package main

import "github.com/velorashop/auth-service/cmd"

func main() {
	cmd.Execute()
}
