package main

import "github.com/ValentinKolb/blockfile/cmd"

func main() {
	cmd.Execute()
}
