package main

import (
	"github.com/jjramsey/kmcthinfilm-go/cmd"
)

func main() {
	cmd.Execute()
}
