package docx

import (
	"encoding/xml"
	"io"
)

// wordDocument mirrors word/document.xml.
type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

// wordBody keeps paragraphs and tables in document order, which the
// default struct-field unmarshaling would lose.
type wordBody struct {
	Elements []bodyElement
}

type bodyElement struct {
	Paragraph *wordParagraph
	Table     *wordTable
}

func (b *wordBody) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p wordParagraph
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Paragraph: &p})
			case "tbl":
				var tbl wordTable
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Table: &tbl})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

type wordParagraph struct {
	Props wordParaProps `xml:"pPr"`
	Runs  []wordRun     `xml:"r"`
	Links []wordLink    `xml:"hyperlink"`
}

type wordParaProps struct {
	Style      valAttr `xml:"pStyle"`
	Justify    valAttr `xml:"jc"`
	OutlineLvl valAttr `xml:"outlineLvl"`
	Indent     struct {
		Left      string `xml:"left,attr"`
		Right     string `xml:"right,attr"`
		FirstLine string `xml:"firstLine,attr"`
	} `xml:"ind"`
}

type wordLink struct {
	ID   string    `xml:"id,attr"`
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Props    wordRunProps  `xml:"rPr"`
	Text     []wordText    `xml:"t"`
	Tabs     []struct{}    `xml:"tab"`
	Breaks   []wordBreak   `xml:"br"`
	Drawings []wordDrawing `xml:"drawing"`
}

type wordRunProps struct {
	Bold      *valAttr `xml:"b"`
	Italic    *valAttr `xml:"i"`
	Underline valAttr  `xml:"u"`
	Strike    *valAttr `xml:"strike"`
	Size      valAttr  `xml:"sz"` // Half-points
	Color     valAttr  `xml:"color"`
	Fonts     struct {
		ASCII string `xml:"ascii,attr"`
	} `xml:"rFonts"`
}

// set reports whether a toggle property is present and not "false"/"0".
func (v *valAttr) set() bool {
	if v == nil {
		return false
	}
	return v.Val != "false" && v.Val != "0"
}

type wordText struct {
	Space string `xml:"space,attr"`
	Value string `xml:",chardata"`
}

type wordBreak struct {
	Type string `xml:"type,attr"` // page, column, textWrapping
}

type wordDrawing struct {
	Inline *wordPic `xml:"inline"`
	Anchor *wordPic `xml:"anchor"`
}

type wordPic struct {
	Extent struct {
		CX int64 `xml:"cx,attr"` // EMUs
		CY int64 `xml:"cy,attr"`
	} `xml:"extent"`
	DocPr struct {
		Descr string `xml:"descr,attr"`
	} `xml:"docPr"`
	Blip *struct {
		Embed string `xml:"embed,attr"`
	} `xml:"graphic>graphicData>pic>blipFill>blip"`
}

type wordTable struct {
	Grid struct {
		Cols []struct {
			W string `xml:"w,attr"`
		} `xml:"gridCol"`
	} `xml:"tblGrid"`
	Rows []wordTableRow `xml:"tr"`
}

type wordTableRow struct {
	Props struct {
		Header *valAttr `xml:"tblHeader"`
	} `xml:"trPr"`
	Cells []wordTableCell `xml:"tc"`
}

type wordTableCell struct {
	Props struct {
		GridSpan valAttr `xml:"gridSpan"`
		VMerge   *struct {
			Val string `xml:"val,attr"`
		} `xml:"vMerge"`
	} `xml:"tcPr"`
	Paragraphs []wordParagraph `xml:"p"`
}

type valAttr struct {
	Val string `xml:"val,attr"`
}

// wordStyles mirrors word/styles.xml.
type wordStyles struct {
	Styles []wordStyle `xml:"style"`
}

type wordStyle struct {
	ID    string  `xml:"styleId,attr"`
	Name  valAttr `xml:"name"`
	Props struct {
		OutlineLvl valAttr `xml:"outlineLvl"`
	} `xml:"pPr"`
}

// coreProps mirrors docProps/core.xml (Dublin Core).
type coreProps struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Subject  string `xml:"subject"`
	Keywords string `xml:"keywords"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

// appProps mirrors docProps/app.xml.
type appProps struct {
	Application string `xml:"Application"`
}

// relationships mirrors word/_rels/document.xml.rels.
type relationships struct {
	Rels []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}
