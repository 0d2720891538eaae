package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestKindForFilename(t *testing.T) {
	cases := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"notes.pdf", KindPDF, false},
		{"Notes.DOCX", KindDOCX, false},
		{"readme.txt", KindTXT, false},
		{"page.html", KindHTML, false},
		{"page.htm", KindHTML, false},
		{"image.png", "", true},
		{"noextension", "", true},
	}
	for _, tc := range cases {
		kind, err := KindForFilename(tc.name)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("KindForFilename(%q) err = %v, want ErrUnsupportedType", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("KindForFilename(%q) err = %v", tc.name, err)
			continue
		}
		if kind != tc.want {
			t.Errorf("KindForFilename(%q) = %s, want %s", tc.name, kind, tc.want)
		}
	}
}

func TestExtractTXTReplacesInvalidUTF8(t *testing.T) {
	got, err := Extract([]byte("Hello\xffWorld"), KindTXT)
	if err != nil {
		t.Fatalf("extract txt: %v", err)
	}
	if got != "Hello�World" {
		t.Fatalf("extract txt = %q, want %q", got, "Hello�World")
	}
}

func TestExtractDOCXJoinsParagraphs(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`
	got, err := Extract(buildDocx(t, doc), KindDOCX)
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	want := "First paragraph\nSecond paragraph\n"
	if got != want {
		t.Fatalf("extract docx = %q, want %q", got, want)
	}
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/other.xml"); err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	_, err := Extract(buf.Bytes(), KindDOCX)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Kind != KindDOCX {
		t.Fatalf("decode error kind = %s, want %s", decodeErr.Kind, KindDOCX)
	}
}

func TestExtractPDFGarbageFails(t *testing.T) {
	_, err := Extract([]byte("definitely not a pdf"), KindPDF)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestExtractHTMLSkipsScriptAndStyle(t *testing.T) {
	page := `<html><head><style>p{color:red}</style></head>
<body><p>Visible text</p><script>alert("hidden")</script></body></html>`
	got, err := Extract([]byte(page), KindHTML)
	if err != nil {
		t.Fatalf("extract html: %v", err)
	}
	if !bytes.Contains([]byte(got), []byte("Visible text")) {
		t.Fatalf("extracted html missing body text: %q", got)
	}
	if bytes.Contains([]byte(got), []byte("alert")) || bytes.Contains([]byte(got), []byte("color:red")) {
		t.Fatalf("extracted html contains script/style content: %q", got)
	}
}

func TestExtractUnsupportedKind(t *testing.T) {
	if _, err := Extract([]byte("x"), Kind("epub")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
