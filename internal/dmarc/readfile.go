package dmarc

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/firefart/dmarcrecords/internal/helper"
)

const xsTag = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://dmarc.org/dmarc-xml/0.1">`

// MaxReportSize is the maximum size of an uncompressed report
const MaxReportSize = 64 << 20

var errReportTooLarge = fmt.Errorf("report exceeds %d bytes", MaxReportSize)

func readLimited(r io.Reader) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxReportSize+1))
	if err != nil {
		return nil, err
	}
	if len(content) > MaxReportSize {
		return nil, errReportTooLarge
	}
	return content, nil
}

func readGZ(content []byte) ([]byte, error) {
	buf := bytes.NewBuffer(content)
	gz, err := gzip.NewReader(buf)
	if err != nil {
		return nil, fmt.Errorf("could not gzip read: %w", err)
	}
	defer gz.Close()

	xmlContent, err := readLimited(gz)
	if err != nil {
		return nil, fmt.Errorf("could not read: %w", err)
	}
	return xmlContent, nil
}

func readZIP(content []byte) ([]byte, string, error) {
	buf := bytes.NewReader(content)
	r, err := zip.NewReader(buf, int64(len(content)))
	if err != nil {
		return nil, "", fmt.Errorf("could not open zip: %w", err)
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		x, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("could not open file %s inside zip: %w", f.Name, err)
		}
		defer x.Close()
		xmlContent, err := readLimited(x)
		if err != nil {
			return nil, "", fmt.Errorf("could not read file %s inside zip: %w", f.Name, err)
		}
		// only use first file in the zip file
		return xmlContent, f.FileInfo().Name(), nil
	}
	return nil, "", errors.New("no valid file found within zip archive")
}

// ReadFile unpacks a report attachment and returns the name of the contained
// xml file and its content. Archives are detected by extension first and by
// their magic bytes if the extension is unknown.
func ReadFile(ctx context.Context, filename string, content []byte) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	var xmlContent []byte
	var xmlFilename string
	var err error
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xml", ".gz", ".zip":
	default:
		ext = helper.DetectArchive(content)
		if ext == "" && helper.LooksLikeXML(content) {
			ext = ".xml"
		}
	}

	switch ext {
	case ".xml":
		if len(content) > MaxReportSize {
			return "", "", errReportTooLarge
		}
		xmlContent = content
		xmlFilename = filename
	case ".gz":
		xmlContent, err = readGZ(content)
		if err != nil {
			return "", "", err
		}
		xmlFilename = strings.TrimSuffix(filename, filepath.Ext(filename))
	case ".zip":
		xmlContent, xmlFilename, err = readZIP(content)
		if err != nil {
			return "", "", err
		}
	default:
		return "", "", fmt.Errorf("unknown file type of %s", filename)
	}
	// some xmls contain invalid XML by adding an unclosed xs tag
	xmlContent = bytes.ReplaceAll(xmlContent, []byte(xsTag), []byte(""))

	return xmlFilename, string(xmlContent), nil
}

// ReadReport reads a report attachment and parses all records in it
func ReadReport(ctx context.Context, filename string, content []byte) (string, []AuthenticationRecord, error) {
	xmlFilename, xmlText, err := ReadFile(ctx, filename, content)
	if err != nil {
		return "", nil, err
	}

	records, err := Parse(ctx, xmlText)
	if err != nil {
		return "", nil, fmt.Errorf("error on xml parse: %w", err)
	}

	return xmlFilename, records, nil
}
