package main

import (
	"io"
	"os"

	"github.com/vitte-lang/VitteLight-sub002/engine"
)

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

// loadModule reads and parses path as a VLBC image ("-" for stdin),
// returning exit code 3 on a read failure and exit code 5 on a load
// failure.
func loadModule(path string) (*engine.Module, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, ioErr(3, err)
	}
	mod, err := engine.Load(data)
	if err != nil {
		return nil, ioErr(5, err)
	}
	return mod, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
