package main

import "github.com/naka-gawa/repo-year/cmd"

func main() {
	cmd.Execute()
}
