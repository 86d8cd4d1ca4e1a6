package model

import "fmt"

// Validate checks the structural invariants every parser-produced document
// must satisfy: contiguous 1-based page numbering, and style and resource
// references that resolve within this document. A document that fails
// validation must not be handed to renderers.
func (d *Document) Validate() error {
	for i, page := range d.Pages {
		if page == nil {
			return fmt.Errorf("page at index %d is nil", i)
		}
		if page.Number != i+1 {
			return fmt.Errorf("page at index %d has number %d, want %d", i, page.Number, i+1)
		}
		for j, b := range page.Blocks {
			if err := d.validateBlock(b); err != nil {
				return fmt.Errorf("page %d block %d: %w", page.Number, j, err)
			}
		}
	}
	for _, h := range d.Structure.Headings {
		if h.Ref.Page < 1 || h.Ref.Page > len(d.Pages) {
			return fmt.Errorf("heading %q references page %d of %d", h.Text, h.Ref.Page, len(d.Pages))
		}
	}
	for _, a := range d.Attachments {
		if a.Document != nil {
			if err := a.Document.Validate(); err != nil {
				return fmt.Errorf("attachment %q: %w", a.Filename, err)
			}
		}
	}
	return nil
}

func (d *Document) validateBlock(b Block) error {
	switch blk := b.(type) {
	case *TextBlock:
		if blk.ParagraphStyleID != "" {
			if _, ok := d.Styles.Paragraph[blk.ParagraphStyleID]; !ok {
				return fmt.Errorf("unresolved paragraph style %q", blk.ParagraphStyleID)
			}
		}
		for _, run := range blk.Runs {
			if run.StyleID != "" {
				if _, ok := d.Styles.Text[run.StyleID]; !ok {
					return fmt.Errorf("unresolved text style %q", run.StyleID)
				}
			}
		}
	case *ImageBlock:
		if _, ok := d.Resources.Images[blk.ResourceID]; !ok {
			return fmt.Errorf("unresolved image resource %q", blk.ResourceID)
		}
	case *TableBlock:
		for _, row := range blk.Rows {
			for _, cell := range row.Cells {
				for _, nested := range cell.Blocks {
					if err := d.validateBlock(nested); err != nil {
						return err
					}
				}
			}
		}
	case *ContainerBlock:
		for _, child := range blk.Children {
			if err := d.validateBlock(child); err != nil {
				return err
			}
		}
	}
	return nil
}
