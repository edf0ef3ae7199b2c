package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var errNoInput = errors.New("no complaint text: pass it as arguments, with --file, or on stdin")

// readComplaint resolves the complaint text from args, a file, or stdin.
// A file of "-" reads stdin explicitly.
func readComplaint(cmd *cobra.Command, args []string, file string) (string, error) {
	file = strings.TrimSpace(file)
	switch {
	case file == "-":
		return readAll(cmd.InOrStdin())
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read complaint file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", errNoInput
	}
	text, err := readAll(in)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errNoInput
	}
	return text, nil
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// readComplaintLines returns the non-blank lines of r. Lines starting with
// '#' are comments.
func readComplaintLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read complaints: %w", err)
	}
	return lines, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
