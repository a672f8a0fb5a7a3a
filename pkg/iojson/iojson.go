// Package iojson reads and writes JSON documents for commands that accept
// or produce machine readable output.
package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// StdinPath selects standard input as the --file source.
const StdinPath = "-"

// ErrStdinTerminal is returned when input would be read from an interactive
// terminal.
var ErrStdinTerminal = errors.New("no input provided (stdin is a terminal); pipe JSON input or pass a file path")

func jsonError(msg string, jsonErr error) string {
	// Use json.Marshal to properly escape strings
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// WriteWith writes obj to w as indented JSON. Marshal failures are reported
// on ew as a JSON error document.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		errStr := jsonError("error marshaling in iojson.Write", err)
		_, _ = fmt.Fprintln(ew, errStr)
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write calls WriteWith with w and [os.Stderr].
func Write(w io.Writer, obj any) error {
	return WriteWith(w, os.Stderr, obj)
}

// FileReader decodes a T from the file named by its --file flag.
type FileReader[T any] struct {
	path  string
	stdin io.Reader
}

// Flag returns the --file flag bound to the reader.
func (fr *FileReader[T]) Flag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       usage,
		Destination: &fr.path,
	}
}

// Provided reports whether --file was set.
func (fr *FileReader[T]) Provided() bool {
	return fr.path != ""
}

// Read decodes the document. A path of "-" reads standard input.
func (fr *FileReader[T]) Read() (T, error) {
	var input T

	var reader io.Reader
	switch {
	case fr.path == StdinPath && fr.stdin != nil:
		reader = fr.stdin
	case fr.path == StdinPath:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return input, ErrStdinTerminal
		}
		reader = os.Stdin
	default:
		f, err := os.Open(fr.path)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	}

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}
