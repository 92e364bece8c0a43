package main

import "github.com/denysvitali/mtpfm/cmd"

func main() {
	cmd.Execute()
}
