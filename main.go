package main

import "github.com/Mohsinsiddi/memefactory/cmd"

func main() {
	cmd.Execute()
}
