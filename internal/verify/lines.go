// SPDX-License-Identifier: MPL-2.0

package verify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadLines splits r into lines, keeping each line's terminator. Line endings
// "\r\n" and a lone "\r" are translated to "\n", so output written by a DOS
// guest compares equal to an LF reference. The last line has no terminator if
// the input does not end with one.
func ReadLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var (
		lines []string
		cur   strings.Builder
	)

	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch c {
		case '\n':
			cur.WriteByte('\n')
			lines = append(lines, cur.String())
			cur.Reset()
		case '\r':
			if next, err := br.Peek(1); err == nil && next[0] == '\n' {
				_, _ = br.ReadByte()
			}
			cur.WriteByte('\n')
			lines = append(lines, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines, nil
}

// ReadFileLines opens path and returns its lines as ReadLines does.
// Errors from opening the file are returned unwrapped.
func ReadFileLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
