// Package wordlist loads the words typed by touch simulations.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var builtin = strings.Fields(`
the of and to in is you that it he was for on are as with his they at be
this have from or one had by word but not what all were we when your can
said there use each which she do how their if will up other about out many
then them these so some her would make like him into time has look two more
write go see number way could people my than first water been call who oil
now find long down day did get come made may part quick brown fox jumps over
lazy dog keyboard touch grid proximity
`)

// Builtin returns a small list of common English words.
func Builtin() []string {
	return append([]string(nil), builtin...)
}

// LoadWords reads one word per line from the provided file path. Blank lines
// and lines starting with '#' are skipped.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
