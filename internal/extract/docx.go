package extract

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// docxDocumentXMLPath is the usual main document part inside a .docx zip.
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// wtTag matches <w:t>text</w:t> with any attributes.
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// docxPageBreak matches an explicit page break run.
	docxPageBreak = regexp.MustCompile(`<w:br[^>]*w:type="page"[^>]*/>`)
	// overrideTag matches one Override element in [Content_Types].xml.
	overrideTag = regexp.MustCompile(`<Override[^>]*/?>`)
	partNameRe  = regexp.MustCompile(`PartName="([^"]+)"`)
)

// docxMainPart finds the main document part from [Content_Types].xml, whatever the
// attribute order. Returns "" when not declared.
func docxMainPart(contentTypes string) string {
	for _, tag := range overrideTag.FindAllString(contentTypes, -1) {
		if !strings.Contains(tag, `ContentType="`+docxMainContentType+`"`) {
			continue
		}
		if m := partNameRe.FindStringSubmatch(tag); m != nil {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return ""
}

// extractDOCX returns the document split on explicit page breaks. Runs within a paragraph
// are concatenated and paragraphs are separated by newlines.
func extractDOCX(content []byte) ([]string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return nil, err
	}
	docPath := docxDocumentXMLPath
	if ct, found, err := readZipEntry(zr, contentTypesPath); err == nil && found {
		if p := docxMainPart(string(ct)); p != "" {
			docPath = p
		}
	}
	docXML, found, err := readZipEntry(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	var pages []string
	for _, section := range docxPageBreak.Split(string(docXML), -1) {
		var paras []string
		for _, para := range strings.Split(section, "</w:p>") {
			var b strings.Builder
			for _, m := range wtTag.FindAllStringSubmatch(para, -1) {
				b.WriteString(m[1])
			}
			if t := strings.TrimSpace(b.String()); t != "" {
				paras = append(paras, t)
			}
		}
		pages = append(pages, strings.Join(paras, "\n"))
	}
	return pages, nil
}
