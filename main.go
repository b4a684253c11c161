package main

import "github.com/data-desk-eco/notebook-index/cmd"

func main() {
	cmd.Execute()
}
