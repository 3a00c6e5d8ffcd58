package main

import "routerprobe/internal/cli"

func main() { cli.Main() }
