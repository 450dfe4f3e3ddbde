package main

import (
	"context"

	"github.com/fabric-testbed/slicer/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
