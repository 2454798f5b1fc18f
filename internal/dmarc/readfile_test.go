package dmarc

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path"
	"testing"
)

const sampleReport = `<?xml version="1.0"?>
<feedback>
  <record>
    <row><source_ip>198.51.100.4</source_ip><count>1</count></row>
  </record>
</feedback>`

func gzipContent(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("could not write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("could not close gzip: %v", err)
	}
	return buf.Bytes()
}

func zipContent(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("reports/"); err != nil {
		t.Fatalf("could not create zip dir: %v", err)
	}
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("could not create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("could not write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("could not close zip: %v", err)
	}
	return buf.Bytes()
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		filename     string
		content      []byte
		wantFilename string
	}{
		{
			name:         "xml",
			filename:     "google.com!example.com!1335571200!1335657599.xml",
			content:      []byte(sampleReport),
			wantFilename: "google.com!example.com!1335571200!1335657599.xml",
		},
		{
			name:         "gzip",
			filename:     "google.com!example.com!1335571200!1335657599.xml.gz",
			content:      gzipContent(t, sampleReport),
			wantFilename: "google.com!example.com!1335571200!1335657599.xml",
		},
		{
			name:         "zip",
			filename:     "report.zip",
			content:      zipContent(t, "reports/google.com!example.com!1335571200!1335657599.xml", sampleReport),
			wantFilename: "google.com!example.com!1335571200!1335657599.xml",
		},
		{
			name:         "gzip without extension",
			filename:     "attachment.bin",
			content:      gzipContent(t, sampleReport),
			wantFilename: "attachment",
		},
		{
			name:         "xml without extension",
			filename:     "attachment",
			content:      []byte(sampleReport),
			wantFilename: "attachment",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			filename, xmlText, err := ReadFile(context.Background(), tc.filename, tc.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filename != tc.wantFilename {
				t.Errorf("wrong filename %q want %q", filename, tc.wantFilename)
			}
			if xmlText != sampleReport {
				t.Errorf("wrong content %q", xmlText)
			}
		})
	}
}

func TestReadFileStripsSchemaTag(t *testing.T) {
	t.Parallel()

	content := `<?xml version="1.0"?>` + xsTag + `<feedback><record><count>1</count></record></feedback>`
	_, records, err := ReadReport(context.Background(), "report.xml", []byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].MessageCount != 1 {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestReadFileErrors(t *testing.T) {
	t.Parallel()

	if _, _, err := ReadFile(context.Background(), "report.pdf", []byte("%PDF-1.4")); err == nil {
		t.Fatal("expected error on unknown file type")
	}
	if _, _, err := ReadFile(context.Background(), "report.gz", []byte("not gzip")); err == nil {
		t.Fatal("expected error on invalid gzip")
	}
	if _, _, err := ReadFile(context.Background(), "report.zip", []byte("not zip")); err == nil {
		t.Fatal("expected error on invalid zip")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := zw.Close(); err != nil {
		t.Fatalf("could not close zip: %v", err)
	}
	if _, _, err := ReadFile(context.Background(), "empty.zip", buf.Bytes()); err == nil {
		t.Fatal("expected error on empty zip")
	}
}

func TestReadReport(t *testing.T) {
	t.Parallel()

	b, err := os.ReadFile(path.Join("..", "..", "testdata", "report.xml"))
	if err != nil {
		t.Fatalf("could not read report: %v", err)
	}

	filename, records, err := ReadReport(context.Background(), "report.xml.gz", gzipContent(t, string(b)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filename != "report.xml" {
		t.Errorf("wrong filename %q", filename)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	_, _, err = ReadReport(context.Background(), "broken.xml", []byte(`<feedback><record>`))
	if !errors.Is(err, ErrMalformedXML) {
		t.Fatalf("expected malformed xml error, got %v", err)
	}
}
