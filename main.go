package main

import "github.com/blogsmith/blogsmith/cmd"

func main() {
	cmd.Execute()
}
