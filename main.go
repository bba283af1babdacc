package main

import "github.com/jfmyers9/lastfmkit/cmd"

func main() {
	cmd.Execute()
}
