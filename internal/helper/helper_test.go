package helper

import (
	"testing"
)

func TestDetectArchive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{name: "gzip", content: []byte{31, 139, 8, 0}, want: ".gz"},
		{name: "zip", content: []byte{80, 75, 3, 4, 20, 0}, want: ".zip"},
		{name: "empty zip", content: []byte{80, 75, 5, 6}, want: ".zip"},
		{name: "xml", content: []byte("<?xml version=\"1.0\"?>"), want: ""},
		{name: "short", content: []byte{31}, want: ""},
		{name: "empty", content: nil, want: ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectArchive(tc.content); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestLooksLikeXML(t *testing.T) {
	t.Parallel()

	if !LooksLikeXML([]byte("\xef\xbb\xbf\n  <feedback/>")) {
		t.Fatal("expected xml with bom to be detected")
	}
	if LooksLikeXML([]byte("hello")) {
		t.Fatal("plain text detected as xml")
	}
}
