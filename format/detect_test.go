package format

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"testing"
)

// buildZip assembles an in-memory ZIP archive with the given member names.
func buildZip(t *testing.T, members map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip member %s: %v", name, err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestDetectSignatures(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		data       []byte
		wantFormat string
		minConf    float64
		method     Method
	}{
		{"pdf", []byte("%PDF-1.4 sample content"), "pdf", 0.95, MethodSignature},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, "png", 0.95, MethodSignature},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, "jpeg", 0.9, MethodSignature},
		{"gif", []byte("GIF89a....."), "gif", 0.9, MethodSignature},
		{"html", []byte("<!DOCTYPE html><html></html>"), "html", 0.9, MethodSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := d.Detect(tt.data, "")
			if len(results) == 0 {
				t.Fatal("no results")
			}
			top := results[0]
			if top.Format.Name != tt.wantFormat {
				t.Errorf("top format = %s, want %s", top.Format.Name, tt.wantFormat)
			}
			if top.Confidence < tt.minConf {
				t.Errorf("confidence = %.2f, want >= %.2f", top.Confidence, tt.minConf)
			}
			if top.Method != tt.method {
				t.Errorf("method = %s, want %s", top.Method, tt.method)
			}
		})
	}
}

func TestDetectOfficeInZip(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name    string
		members map[string]string
		want    string
	}{
		{"docx", map[string]string{"[Content_Types].xml": "<Types/>", "word/document.xml": "<w:document/>"}, "docx"},
		{"xlsx", map[string]string{"[Content_Types].xml": "<Types/>", "xl/workbook.xml": "<workbook/>"}, "xlsx"},
		{"pptx", map[string]string{"[Content_Types].xml": "<Types/>", "ppt/presentation.xml": "<p/>"}, "pptx"},
		{"odt", map[string]string{"mimetype": "application/vnd.oasis.opendocument.text", "content.xml": "<c/>"}, "odt"},
		{"epub", map[string]string{"mimetype": "application/epub+zip", "META-INF/container.xml": "<c/>"}, "epub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildZip(t, tt.members)
			results := d.Detect(data, "")
			if len(results) == 0 {
				t.Fatal("no results")
			}
			top := results[0]
			if top.Format.Name != tt.want {
				t.Errorf("top format = %s, want %s (not generic zip)", top.Format.Name, tt.want)
			}
			if top.Method != MethodContainer {
				t.Errorf("method = %s, want %s", top.Method, MethodContainer)
			}
			if top.Confidence < 0.9 {
				t.Errorf("confidence = %.2f, want >= 0.9", top.Confidence)
			}

			// The generic ZIP match stays available as a fallback.
			var sawZip bool
			for _, r := range results {
				if r.Format.Name == "zip" {
					sawZip = true
					if r.Confidence >= top.Confidence {
						t.Error("generic zip should rank below the refined format")
					}
				}
			}
			if !sawZip {
				t.Error("generic zip candidate missing")
			}
		})
	}
}

func TestDetectPlainZip(t *testing.T) {
	d := NewDetector()
	data := buildZip(t, map[string]string{"notes.txt": "hello"})

	results := d.Detect(data, "")
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Format.Name != "zip" {
		t.Errorf("top format = %s, want zip", results[0].Format.Name)
	}
}

func TestDetectTruncatedHeader(t *testing.T) {
	d := NewDetector()

	// Only half the PNG signature: must not match PNG.
	results := d.Detect([]byte{0x89, 0x50, 0x4E, 0x47}, "")
	for _, r := range results {
		if r.Format.Name == "png" {
			t.Errorf("truncated header matched png at %.2f", r.Confidence)
		}
	}
}

func TestDetectExtensionFallback(t *testing.T) {
	d := NewDetector()
	data := []byte{0x00, 0x01, 0x02, 0x03, 0x04}

	results := d.Detect(data, "report.pdf")
	if len(results) == 0 {
		t.Fatal("no results")
	}
	top := results[0]
	if top.Format.Name != "pdf" {
		t.Errorf("top format = %s, want pdf", top.Format.Name)
	}
	if top.Method != MethodExtension {
		t.Errorf("method = %s, want %s", top.Method, MethodExtension)
	}
	if top.Confidence >= 0.92 {
		t.Errorf("extension confidence %.2f must stay below signature confidence", top.Confidence)
	}
}

func TestDetectUnknown(t *testing.T) {
	d := NewDetector()

	if results := d.Detect(nil, ""); len(results) != 0 {
		t.Errorf("empty input produced %d results", len(results))
	}
	if results := d.Detect([]byte{0x00, 0x01, 0x02}, ""); len(results) != 0 {
		t.Errorf("binary junk produced %d results", len(results))
	}
}

func TestDetectTextHeuristic(t *testing.T) {
	d := NewDetector()

	results := d.Detect([]byte("just some plain prose\nwith two lines\n"), "")
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Format.Name != "text" {
		t.Errorf("top format = %s, want text", results[0].Format.Name)
	}
	if results[0].Method != MethodHeuristic {
		t.Errorf("method = %s, want %s", results[0].Method, MethodHeuristic)
	}
}

func TestDetectNestedGzip(t *testing.T) {
	d := NewDetector()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	content := []byte("file contents")
	tw.WriteHeader(&tar.Header{Name: "member.txt", Mode: 0o644, Size: int64(len(content))})
	tw.Write(content)
	tw.Close()

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	gw.Write(tarBuf.Bytes())
	gw.Close()

	results := d.Detect(gzBuf.Bytes(), "archive.tar.gz")
	var sawTar, sawGzip bool
	for _, r := range results {
		switch r.Format.Name {
		case "tar":
			sawTar = true
			if r.Method != MethodContainer {
				t.Errorf("tar method = %s, want %s", r.Method, MethodContainer)
			}
		case "gzip":
			sawGzip = true
		}
	}
	if !sawTar {
		t.Error("nested tar not surfaced")
	}
	if !sawGzip {
		t.Error("gzip candidate missing")
	}
}

func TestByExtension(t *testing.T) {
	if d, ok := ByExtension(".PDF"); !ok || d.Name != "pdf" {
		t.Errorf("ByExtension(.PDF) = %v, %v", d, ok)
	}
	if _, ok := ByExtension("nope"); ok {
		t.Error("ByExtension(nope) should miss")
	}
}

func TestByName(t *testing.T) {
	if d, ok := ByName("docx"); !ok || d.MIME == "" {
		t.Errorf("ByName(docx) = %v, %v", d, ok)
	}
	if _, ok := ByName("not-a-format"); ok {
		t.Error("ByName(not-a-format) should miss")
	}
}
