package protocol

import "bytes"

// Tokenize splits one command line into its whitespace-delimited tokens.
// Runs of spaces and tabs collapse, so no token is ever empty. The protocol
// has no escaping rules; a token containing whitespace cannot exist.
func Tokenize(line []byte) [][]byte {
	return bytes.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}
