// Package utf32 converts between UTF-8 byte sequences and UTF-32
// codepoint sequences, the string representation used by the VM.
//
// # Invalid input
//
// Batch decoding supports three policies for invalid bytes:
//
//	Fail             abort with an invalid_utf8 error
//	ReplacementChar  substitute U+FFFD
//	SurrogateEscape  map byte b to codepoint 0xDC80+b
//
// Surrogate escaping is lossless: encoding with surrogate unescaping
// enabled writes the original byte back, so arbitrary byte strings
// round-trip through the codepoint representation exactly. As a
// consequence the decoder rejects real surrogate codepoints
// (U+D800..U+DFFF) in the input; that range is reserved.
//
// The decoder also rejects overlong encodings and sequences whose
// continuation bytes do not match 10xxxxxx.
//
// # Letters
//
// User-visible string indexing counts letters, not codepoints: a
// letter is a base codepoint plus any trailing combining marks
// (categories Mn, Mc, Me). LetterLen and FirstLetterLen implement
// that fold. Escaped invalid bytes always count as one letter each.
package utf32
