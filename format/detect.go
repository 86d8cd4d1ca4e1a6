package format

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// Method records how a format was detected.
type Method string

const (
	MethodSignature Method = "signature"
	MethodContainer Method = "container"
	MethodExtension Method = "extension"
	MethodHeuristic Method = "heuristic"
)

// Result is one format candidate with its confidence in [0,1]. Results are
// produced fresh per detection call and never persisted.
type Result struct {
	Format     Descriptor
	Confidence float64
	Method     Method
}

// Confidence levels. Extension fallback must stay strictly below any
// signature match so unreliable filename metadata never outranks content.
const (
	confidenceShared    = 0.60
	confidenceContainer = 0.95
	confidenceExtension = 0.50
	confidenceHeuristic = 0.30
)

// MaxPrefix is the number of leading bytes signature matching examines.
// Container refinement may look further into the slice it is given, but
// detection never requires more input than the caller already holds.
const MaxPrefix = 4096

// maxNestedDepth caps recursive re-detection of unwrapped container
// content, guarding against decompression-bomb style nesting.
const maxNestedDepth = 2

// Detector ranks format candidates for a byte prefix.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect examines data (at least the first few KB of the input) and an
// optional filename hint, and returns format candidates ordered by
// descending confidence. An empty slice means the format is unknown;
// Detect never returns an error.
func (d *Detector) Detect(data []byte, filename string) []Result {
	results := d.detect(data, filename, 0)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return dedupe(results)
}

func (d *Detector) detect(data []byte, filename string, depth int) []Result {
	var results []Result

	prefix := data
	if len(prefix) > MaxPrefix {
		prefix = prefix[:MaxPrefix]
	}

	for _, sig := range signatures {
		if !matches(prefix, sig) {
			continue
		}
		if sig.Shared {
			results = append(results, d.refineShared(data, sig)...)
			continue
		}
		results = append(results, Result{
			Format:     sig.Format,
			Confidence: signatureConfidence(sig),
			Method:     MethodSignature,
		})
		// Compressed wrappers get nested re-detection on the unwrapped
		// content so a .tar.gz surfaces as tar, not just gzip.
		if sig.Format.Name == GZIP.Name && depth < maxNestedDepth {
			if inner, ok := gunzipPrefix(data); ok {
				for _, r := range d.detect(inner, "", depth+1) {
					if r.Confidence > confidenceContainer {
						r.Confidence = confidenceContainer
					}
					r.Method = MethodContainer
					results = append(results, r)
				}
			}
		}
	}

	if len(results) == 0 && filename != "" {
		if desc, ok := ByExtension(extOf(filename)); ok {
			results = append(results, Result{
				Format:     desc,
				Confidence: confidenceExtension,
				Method:     MethodExtension,
			})
		}
	}

	if len(results) == 0 && looksLikeText(prefix) {
		results = append(results, Result{
			Format:     PlainText,
			Confidence: confidenceHeuristic,
			Method:     MethodHeuristic,
		})
	}

	return results
}

// matches checks a signature against the prefix. Patterns that do not fit
// inside the available bytes never match, so truncated headers cannot
// produce false positives.
func matches(prefix []byte, sig Signature) bool {
	end := sig.Offset + len(sig.Magic)
	if end > len(prefix) {
		return false
	}
	if !bytes.Equal(prefix[sig.Offset:end], sig.Magic) {
		return false
	}
	// RIFF-embedded signatures additionally require the RIFF header.
	if sig.Format.Name == WebP.Name {
		return len(prefix) >= 4 && bytes.Equal(prefix[:4], []byte("RIFF"))
	}
	return true
}

// signatureConfidence derives a score from signature specificity: longer
// patterns are harder to hit by accident and score higher.
func signatureConfidence(sig Signature) float64 {
	switch n := len(sig.Magic); {
	case n >= 8:
		return 0.99
	case n >= 5:
		return 0.98
	case n >= 3:
		return 0.96
	default:
		return 0.92
	}
}

// refineShared disambiguates signatures claimed by multiple formats via
// secondary structural checks, keeping the generic match as a down-weighted
// fallback candidate.
func (d *Detector) refineShared(data []byte, sig Signature) []Result {
	generic := Result{Format: sig.Format, Confidence: confidenceShared, Method: MethodSignature}

	switch sig.Format.Name {
	case ZIP.Name:
		if refined, ok := inspectZip(data); ok {
			return []Result{
				{Format: refined, Confidence: confidenceContainer, Method: MethodContainer},
				generic,
			}
		}
	case WebP.Name:
		// Already disambiguated by the RIFF check in matches.
		return []Result{{Format: sig.Format, Confidence: signatureConfidence(sig), Method: MethodSignature}}
	}

	return []Result{generic}
}

// inspectZip inspects archive member names to map a generic ZIP onto the
// OOXML/ODF/EPUB format it actually carries.
func inspectZip(data []byte) (Descriptor, bool) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		// Truncated archive (detection may only hold a prefix): fall
		// back to scanning for well-known member paths stored near the
		// start of the file.
		return scanZipPrefix(data)
	}

	// ODF and EPUB store their MIME type in a "mimetype" member.
	for _, f := range zr.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			break
		}
		buf := make([]byte, 128)
		n, _ := rc.Read(buf)
		rc.Close()
		mime := string(buf[:n])
		switch {
		case strings.Contains(mime, "opendocument.text"):
			return ODT, true
		case strings.Contains(mime, "epub+zip"):
			return EPUB, true
		}
	}

	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, true
		case strings.HasPrefix(f.Name, "xl/"):
			return XLSX, true
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX, true
		}
	}
	return Descriptor{}, false
}

// scanZipPrefix searches raw bytes for member names when the central
// directory is unavailable. Local file headers store the name inline, so
// the first members of an OOXML archive are visible in the prefix.
func scanZipPrefix(data []byte) (Descriptor, bool) {
	switch {
	case bytes.Contains(data, []byte("word/")):
		return DOCX, true
	case bytes.Contains(data, []byte("xl/")):
		return XLSX, true
	case bytes.Contains(data, []byte("ppt/")):
		return PPTX, true
	case bytes.Contains(data, []byte("application/vnd.oasis.opendocument.text")):
		return ODT, true
	case bytes.Contains(data, []byte("application/epub+zip")):
		return EPUB, true
	}
	return Descriptor{}, false
}

// gunzipPrefix decompresses at most MaxPrefix bytes of a gzip stream for
// nested re-detection.
func gunzipPrefix(data []byte) ([]byte, bool) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer gr.Close()

	inner := make([]byte, MaxPrefix)
	n, err := io.ReadFull(gr, inner)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, false
	}
	if n == 0 {
		return nil, false
	}
	return inner[:n], true
}

// looksLikeText reports whether the prefix is plausible UTF-8 text with no
// control bytes outside the usual whitespace.
func looksLikeText(prefix []byte) bool {
	if len(prefix) == 0 {
		return false
	}
	if !utf8.Valid(prefix) {
		return false
	}
	for _, b := range prefix {
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			return false
		}
	}
	return true
}

// dedupe keeps the highest-confidence result per format name. Input must
// already be sorted by descending confidence.
func dedupe(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		if seen[r.Format.Name] {
			continue
		}
		seen[r.Format.Name] = true
		out = append(out, r)
	}
	return out
}

func extOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return ""
	}
	return filename[idx+1:]
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
