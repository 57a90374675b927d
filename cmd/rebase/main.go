package main

import "github.com/iamthetwodigiter/rusty-rebase/internal/cli"

func main() {
	cli.Execute()
}
