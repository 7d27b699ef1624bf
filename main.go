package main

import (
	"github.com/pawlang/paw/cmd"
	_ "github.com/pawlang/paw/frontend/cslang"
	_ "github.com/pawlang/paw/frontend/paw"
	_ "github.com/pawlang/paw/frontend/tslang"
)

var version = "v0.3.0"

func main() {
	cmd.Execute(version)
}
