package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX pulls paragraph text out of word/document.xml inside the
// docx archive. Each paragraph contributes its text followed by a newline,
// preserving document order.
func extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DecodeError{Kind: KindDOCX, Err: err}
	}
	var docFile *zip.File
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			docFile = file
			break
		}
	}
	if docFile == nil {
		return "", &DecodeError{Kind: KindDOCX, Err: fmt.Errorf("word/document.xml not found")}
	}
	rc, err := docFile.Open()
	if err != nil {
		return "", &DecodeError{Kind: KindDOCX, Err: err}
	}
	defer rc.Close()
	text, err := documentText(rc)
	if err != nil {
		return "", &DecodeError{Kind: KindDOCX, Err: err}
	}
	return text, nil
}

// documentText streams through the WordprocessingML body, joining run text
// ("w:t" elements) per paragraph ("w:p").
func documentText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	var paragraph strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString(paragraph.String())
				sb.WriteString("\n")
				paragraph.Reset()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(el)
			}
		}
	}
	return sb.String(), nil
}
