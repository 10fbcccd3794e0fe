// Package token defines lexical token kinds and trivia for Python source.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Start..End).
//   - Indent and Dedent tokens are zero-width; the whitespace that produced
//     them stays in the Leading trivia of the following real token.
//   - Concatenating Leading trivia and Text of every token, in order,
//     reproduces the source byte-for-byte.
//   - Soft keywords (match, case, type, _) are plain names.
package token
