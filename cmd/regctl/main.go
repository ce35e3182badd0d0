// Command regctl runs operator tasks against the regulations store: the
// semester rollover, reference data imports and audit schema migrations.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := NewApp().Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
