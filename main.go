package main

import "github.com/ValentinKolb/redikv/cmd"

func main() {
	cmd.Execute()
}
