package sheet

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
)

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`
	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`
	docxHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	docxFooter = `<w:sectPr/></w:body></w:document>`
	docxBorders = `<w:tblBorders>` +
		`<w:top w:val="single" w:sz="4"/><w:left w:val="single" w:sz="4"/>` +
		`<w:bottom w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/>` +
		`<w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/>` +
		`</w:tblBorders>`
)

// docx accumulates a WordprocessingML body of headings and tables.
type docx struct {
	body bytes.Buffer
}

func newDocx() *docx { return &docx{} }

func (d *docx) heading(text string) {
	d.body.WriteString(`<w:p><w:r><w:rPr><w:b/></w:rPr>`)
	d.text(text)
	d.body.WriteString(`</w:r></w:p>`)
}

func (d *docx) table(header []string, rows [][]string) {
	d.body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/>` + docxBorders + `</w:tblPr>`)
	d.row(header, true)
	for _, r := range rows {
		d.row(r, false)
	}
	// Word requires a paragraph between adjacent tables.
	d.body.WriteString(`</w:tbl><w:p/>`)
}

func (d *docx) row(cells []string, header bool) {
	d.body.WriteString(`<w:tr>`)
	for _, c := range cells {
		d.body.WriteString(`<w:tc><w:p>`)
		if header {
			d.body.WriteString(`<w:pPr><w:shd w:val="clear" w:fill="` + HeaderFill + `"/><w:jc w:val="center"/></w:pPr>`)
			d.body.WriteString(`<w:r><w:rPr><w:b/><w:color w:val="FFFFFF"/></w:rPr>`)
		} else {
			align := "left"
			if IsNumber(c) {
				align = "right"
			}
			d.body.WriteString(`<w:pPr><w:jc w:val="` + align + `"/></w:pPr><w:r>`)
		}
		d.text(c)
		d.body.WriteString(`</w:r></w:p></w:tc>`)
	}
	d.body.WriteString(`</w:tr>`)
}

func (d *docx) text(s string) {
	d.body.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(&d.body, []byte(s))
	d.body.WriteString(`</w:t>`)
}

func (d *docx) save(path string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", docxHeader + d.body.String() + docxFooter},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("docx part %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return fmt.Errorf("docx part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish docx: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
