package main

import (
	"os"

	"github.com/Iron-Ham/weft/internal/cmd"
	"github.com/Iron-Ham/weft/internal/errors"
)

func main() {
	os.Exit(errors.ExitCode(cmd.Execute()))
}
