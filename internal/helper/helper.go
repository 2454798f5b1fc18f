package helper

import (
	"bytes"
)

type signature struct {
	magic []byte
	ext   string
}

// https://en.wikipedia.org/wiki/List_of_file_signatures
var magicTable = []signature{
	{magic: []byte{31, 139}, ext: ".gz"},        // "\x1f\x8b"
	{magic: []byte{80, 75, 3, 4}, ext: ".zip"}, // "\x50\x4B\x03\x04"
	{magic: []byte{80, 75, 5, 6}, ext: ".zip"}, // "\x50\x4B\x05\x06"
	{magic: []byte{80, 75, 7, 8}, ext: ".zip"}, // "\x50\x4B\x07\x08"
}

// DetectArchive returns the file extension matching the magic bytes of
// content or an empty string if it is not a supported archive
func DetectArchive(content []byte) string {
	sliceEnd := min(len(content), 10)
	contentStr := content[0:sliceEnd]

	for _, sig := range magicTable {
		if bytes.HasPrefix(contentStr, sig.magic) {
			return sig.ext
		}
	}

	return ""
}

// LooksLikeXML reports if content starts with a tag after an optional
// byte order mark and leading whitespace
func LooksLikeXML(content []byte) bool {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	content = bytes.TrimLeft(content, " \t\r\n")
	return bytes.HasPrefix(content, []byte("<"))
}
