// console is the interactive front end: a read-eval-print loop over one
// kernel session. Statements accumulate until the brackets and blocks
// balance, so matrix literals and loops can span lines.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"mexlab/pkg/kernel"
)

const prompt = ">> "
const contPrompt = ".. "

func main() {
	session := kernel.NewSession(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("mexlab console - type 'exit' to leave")
	var pending []string
	for {
		if len(pending) == 0 {
			fmt.Print(prompt)
		} else {
			fmt.Print(contPrompt)
		}
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()

		if len(pending) == 0 {
			switch strings.TrimSpace(line) {
			case "exit", "quit":
				return
			case "":
				continue
			}
		}

		pending = append(pending, line)
		src := strings.Join(pending, "\n")
		if needsMore(src) {
			continue
		}
		pending = nil

		if err := session.Execute(src); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// needsMore reports whether src is an obviously unfinished chunk: an open
// bracket, an open block keyword, or a trailing continuation.
func needsMore(src string) bool {
	depth := 0
	blocks := 0

	for _, line := range strings.Split(src, "\n") {
		inString := false
		lastSignificant := byte(0)
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if inString {
				if ch == '\'' {
					inString = false
				}
				continue
			}
			switch ch {
			case '%':
				i = len(line)
				continue
			case '\'':
				// A quote after a value is a transpose, not a string open.
				if !isValueByte(lastSignificant) {
					inString = true
				}
			case '[', '{', '(':
				depth++
			case ']', '}', ')':
				depth--
			}
			if ch != ' ' && ch != '\t' {
				lastSignificant = ch
			}
		}
		for _, w := range strings.Fields(stripStrings(line)) {
			switch strings.TrimRight(w, ",;") {
			case "if", "for", "while", "switch", "try", "function":
				blocks++
			case "end":
				if blocks > 0 {
					blocks--
				}
			}
		}
	}
	if strings.HasSuffix(strings.TrimSpace(src), "...") {
		return true
	}
	return depth > 0 || blocks > 0
}

// stripStrings blanks out quoted text so keywords inside strings don't
// count as block openers.
func stripStrings(line string) string {
	out := []byte(line)
	inString := false
	lastSignificant := byte(0)
	for i := 0; i < len(out); i++ {
		ch := out[i]
		if inString {
			out[i] = ' '
			if ch == '\'' {
				inString = false
			}
			continue
		}
		if ch == '\'' && !isValueByte(lastSignificant) {
			inString = true
			out[i] = ' '
		}
		if ch != ' ' && ch != '\t' {
			lastSignificant = ch
		}
	}
	return string(out)
}

func isValueByte(b byte) bool {
	switch b {
	case ')', ']', '}', '\'':
		return true
	}
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
