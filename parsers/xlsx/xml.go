package xlsx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

type workbook struct {
	XMLName xml.Name   `xml:"workbook"`
	Sheets  []sheetRef `xml:"sheets>sheet"`
}

type sheetRef struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"id,attr"`
}

type worksheet struct {
	XMLName    xml.Name    `xml:"worksheet"`
	Rows       []sheetRow  `xml:"sheetData>row"`
	MergeCells []mergeCell `xml:"mergeCells>mergeCell"`
}

type sheetRow struct {
	R     int         `xml:"r,attr"` // 1-indexed row number
	Cells []sheetCell `xml:"c"`
}

type sheetCell struct {
	R  string     `xml:"r,attr"` // Cell reference, e.g. "B3"
	T  string     `xml:"t,attr"` // s, b, e, str, inlineStr; empty for numbers
	V  string     `xml:"v"`
	F  string     `xml:"f"`
	Is *inlineStr `xml:"is"`
}

type inlineStr struct {
	T string `xml:"t"`
}

type mergeCell struct {
	Ref string `xml:"ref,attr"` // e.g. "A1:B2"
}

type sharedStrings struct {
	XMLName xml.Name       `xml:"sst"`
	Items   []sharedString `xml:"si"`
}

type sharedString struct {
	T string `xml:"t"`
	R []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

// text flattens a shared-string item; rich text concatenates its runs.
func (s sharedString) text() string {
	if s.T != "" || len(s.R) == 0 {
		return s.T
	}
	var sb strings.Builder
	for _, run := range s.R {
		sb.WriteString(run.T)
	}
	return sb.String()
}

type relationships struct {
	XMLName xml.Name `xml:"Relationships"`
	Rels    []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type coreProps struct {
	XMLName  xml.Name `xml:"coreProperties"`
	Title    string   `xml:"title"`
	Creator  string   `xml:"creator"`
	Subject  string   `xml:"subject"`
	Keywords string   `xml:"keywords"`
	Created  string   `xml:"created"`
	Modified string   `xml:"modified"`
}

type appProps struct {
	XMLName     xml.Name `xml:"Properties"`
	Application string   `xml:"Application"`
}

// cellRef parses a reference like "A1" or "AA100" into 0-indexed column and
// row.
func cellRef(ref string) (col, row int, ok bool) {
	i := 0
	for i < len(ref) && isRefLetter(ref[i]) {
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, false
	}
	col = columnIndex(ref[:i])
	if col < 0 {
		return 0, 0, false
	}
	n, err := strconv.Atoi(ref[i:])
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return col, n - 1, true
}

// rangeRef parses a range like "A1:D10" into 0-indexed corners.
func rangeRef(ref string) (c1, r1, c2, r2 int, ok bool) {
	start, end, found := strings.Cut(ref, ":")
	if !found {
		return 0, 0, 0, 0, false
	}
	c1, r1, ok = cellRef(start)
	if !ok {
		return 0, 0, 0, 0, false
	}
	c2, r2, ok = cellRef(end)
	if !ok {
		return 0, 0, 0, 0, false
	}
	return c1, r1, c2, r2, true
}

// columnIndex maps column letters to a 0-indexed column: A=0, Z=25, AA=26.
func columnIndex(col string) int {
	n := 0
	for i := 0; i < len(col); i++ {
		c := col[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return -1
		}
		n = n*26 + int(c-'A') + 1
	}
	return n - 1
}

func isRefLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
