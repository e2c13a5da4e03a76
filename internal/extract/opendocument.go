package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// odfContentPath is the main content member of OpenDocument packages.
const odfContentPath = "content.xml"

var (
	// odfText matches text:p and text:h paragraphs, tolerating nested spans.
	odfText  = regexp.MustCompile(`<text:(?:p|h)[^>]*>(.*?)</text:(?:p|h)>`)
	odfTags  = regexp.MustCompile(`<[^>]+>`)
	odpSlide = regexp.MustCompile(`<draw:page[\s>]`)
	odsSheet = regexp.MustCompile(`<table:table[\s>]`)
)

// extractODP returns one page per draw:page (slide).
func extractODP(content []byte) ([]string, error) {
	return extractODF(content, "ODP", odpSlide)
}

// extractODS returns one page per table:table (sheet).
func extractODS(content []byte) ([]string, error) {
	return extractODF(content, "ODS", odsSheet)
}

func extractODF(content []byte, kind string, section *regexp.Regexp) ([]string, error) {
	zr, err := openZip(content, kind)
	if err != nil {
		return nil, err
	}
	data, found, err := readZipEntry(zr, odfContentPath)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", kind, err)
	}
	if !found {
		return nil, fmt.Errorf("extract %s: %s not found", kind, odfContentPath)
	}
	doc := string(data)
	starts := section.FindAllStringIndex(doc, -1)
	if len(starts) == 0 {
		return []string{odfParagraphs(doc)}, nil
	}
	pages := make([]string, len(starts))
	for i, loc := range starts {
		end := len(doc)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		pages[i] = odfParagraphs(doc[loc[0]:end])
	}
	return pages, nil
}

// odfParagraphs returns the text of each paragraph in document order, one per line.
func odfParagraphs(xml string) string {
	var lines []string
	for _, m := range odfText.FindAllStringSubmatch(xml, -1) {
		if t := strings.TrimSpace(odfTags.ReplaceAllString(m[1], "")); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}
