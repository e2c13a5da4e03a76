package e2e

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// PagedExtensions are the formats whose extractor yields one page per page, slide or sheet.
// PDF is covered by internal/extract tests; no minimal PDF with extractable text is built here.
var PagedExtensions = []string{".docx", ".xlsx", ".pptx", ".odp", ".ods"}

// FlatExtensions are the formats extracted as a single page.
var FlatExtensions = []string{".txt", ".md"}

// WriteReportFile returns the bytes of a minimal file of the given extension holding pages.
// Paged formats keep one page per page break, slide or sheet; flat formats join pages with
// blank lines.
func WriteReportFile(ext string, pages []string) ([]byte, error) {
	switch ext {
	case ".txt", ".md":
		return []byte(strings.Join(pages, "\n\n")), nil
	case ".docx":
		return reportDocx(pages)
	case ".pptx":
		return reportPptx(pages)
	case ".odp":
		return odfContent(pages, `<draw:page><draw:text-box><text:p>%s</text:p></draw:text-box></draw:page>`)
	case ".ods":
		return odfContent(pages, `<table:table><table:table-row><table:table-cell><text:p>%s</text:p></table:table-cell></table:table-row></table:table>`)
	case ".xlsx":
		return reportXlsx(pages)
	default:
		return nil, fmt.Errorf("unsupported fixture extension %q", ext)
	}
}

func zipOf(files map[string]string, order []string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		fw, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write([]byte(files[name])); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportDocx(pages []string) ([]byte, error) {
	var body strings.Builder
	for i, p := range pages {
		if i > 0 {
			body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		}
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`
	return zipOf(map[string]string{"word/document.xml": doc}, []string{"word/document.xml"})
}

func reportPptx(pages []string) ([]byte, error) {
	files := make(map[string]string, len(pages))
	order := make([]string, 0, len(pages))
	for i, p := range pages {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		files[name] = `<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + p + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
		order = append(order, name)
	}
	return zipOf(files, order)
}

func odfContent(pages []string, section string) ([]byte, error) {
	var body strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&body, section, p)
	}
	doc := `<office:document-content><office:body>` + body.String() + `</office:body></office:document-content>`
	return zipOf(map[string]string{"content.xml": doc}, []string{"content.xml"})
}

func reportXlsx(pages []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, p := range pages {
		sheet := fmt.Sprintf("Page%d", i+1)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, "A1", p); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
