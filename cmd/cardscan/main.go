package main

import "cardscan/cmd/cardscan/cmd"

func main() {
	cmd.Execute()
}
