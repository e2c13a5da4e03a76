// Package e2e provides end-to-end tests over a corpus of ESG reports and multiple queries.
package e2e

import (
	"fmt"
	"strings"
)

// CorpusReport is one report in the E2E corpus: a file name and its page texts.
type CorpusReport struct {
	Name    string
	Company string
	Pages   []string
}

// QueryTestCase is a question and the report and page whose passage must appear in the results.
type QueryTestCase struct {
	Query          string
	ExpectedReport string
	ExpectedPage   int
	Description    string
}

// Corpus holds reports and query test cases for E2E tests.
type Corpus struct {
	Reports      []CorpusReport
	TestCases    []QueryTestCase
	TotalReports int
	TotalQueries int
}

type topic struct {
	phrase string
	text   string
}

var companies = []struct {
	name   string
	topics [2]topic
}{
	{"Afrigrid", [2]topic{
		{"coal retirement Lethabo", "Afrigrid completed the coal retirement Lethabo programme, closing two units. The coal retirement Lethabo schedule moved 18 months earlier than planned."},
		{"solar microgrids Limpopo", "Solar microgrids Limpopo now serve 40,000 households. Afrigrid financed solar microgrids Limpopo through a green bond."},
	}},
	{"Baobab Mining", [2]topic{
		{"tailings dam monitoring", "Baobab installed satellite tailings dam monitoring at every site. Tailings dam monitoring follows the Global Industry Standard."},
		{"artisanal miners cooperative", "An artisanal miners cooperative was formed with 1,200 members. The artisanal miners cooperative receives fair purchase prices."},
	}},
	{"Coastal Seafoods", [2]topic{
		{"mangrove restoration Mombasa", "Coastal Seafoods funded mangrove restoration Mombasa across 300 hectares. Mangrove restoration Mombasa sequesters blue carbon."},
		{"bycatch reduction trawlers", "Bycatch reduction trawlers were fitted with turtle excluder devices. Bycatch reduction trawlers cut discards by 35 percent."},
	}},
	{"Delta Cement", [2]topic{
		{"clinker substitution calcined clay", "Delta Cement raised clinker substitution calcined clay to 28 percent. Clinker substitution calcined clay lowers process emissions."},
		{"kiln waste heat recovery", "Kiln waste heat recovery now supplies 9 MW of power. Kiln waste heat recovery reduced grid purchases."},
	}},
	{"Equator Bank", [2]topic{
		{"financed emissions PCAF", "Equator Bank measured financed emissions PCAF for its corporate book. Financed emissions PCAF coverage reached 82 percent of loans."},
		{"smallholder agriculture lending", "Smallholder agriculture lending grew to 2.1 billion shillings. Smallholder agriculture lending includes climate-smart irrigation."},
	}},
	{"Fynbos Wines", [2]topic{
		{"drip irrigation vineyards", "Fynbos Wines converted all blocks to drip irrigation vineyards. Drip irrigation vineyards saved 410 megalitres of water."},
		{"lightweight glass bottles", "Lightweight glass bottles weigh 390 grams instead of 550. Lightweight glass bottles reduce freight emissions."},
	}},
	{"Gorilla Telecom", [2]topic{
		{"diesel generators towers", "Gorilla Telecom replaced diesel generators towers at 2,000 sites. Diesel generators towers were swapped for lithium batteries."},
		{"mobile money inclusion", "Mobile money inclusion reached nine million users. Mobile money inclusion supports rural women entrepreneurs."},
	}},
	{"Highveld Steel", [2]topic{
		{"electric arc furnace scrap", "Highveld Steel commissioned an electric arc furnace scrap line. Electric arc furnace scrap melting replaces blast furnace output."},
		{"lost time injury frequency", "Lost time injury frequency fell to 0.21 per million hours. Lost time injury frequency is tracked per shift."},
	}},
	{"Ivory Cocoa", [2]topic{
		{"deforestation free sourcing", "Ivory Cocoa verified deforestation free sourcing with polygon mapping. Deforestation free sourcing covers 96 percent of volume."},
		{"child labour remediation", "Child labour remediation systems reached 1,400 communities. Child labour remediation includes school kits and income support."},
	}},
	{"Jacaranda Logistics", [2]topic{
		{"electric delivery vans", "Jacaranda Logistics added 600 electric delivery vans. Electric delivery vans are charged from rooftop solar."},
		{"driver fatigue telematics", "Driver fatigue telematics alert drivers after long shifts. Driver fatigue telematics cut road incidents."},
	}},
	{"Kalahari Water", [2]topic{
		{"non-revenue water leakage", "Kalahari Water reduced non-revenue water leakage to 24 percent. Non-revenue water leakage is found with acoustic loggers."},
		{"desalination brine discharge", "Desalination brine discharge is diffused offshore. Desalination brine discharge salinity is monitored weekly."},
	}},
	{"Lakeside Textiles", [2]topic{
		{"wastewater dye effluent", "Lakeside Textiles treats wastewater dye effluent with membranes. Wastewater dye effluent colour meets permit limits."},
		{"living wage garment workers", "Living wage garment workers commitments cover three factories. Living wage garment workers gap analysis was published."},
	}},
}

// BuildCorpus returns one two-page report per company and one query per page.
// Each page repeats a signature phrase so queries can assert the correct report and page.
func BuildCorpus() *Corpus {
	reports := make([]CorpusReport, 0, len(companies))
	var cases []QueryTestCase
	for i, c := range companies {
		name := fmt.Sprintf("%02d-%s-sustainability-2023", i+1, slug(c.name))
		r := CorpusReport{Name: name, Company: c.name}
		for p, tp := range c.topics {
			r.Pages = append(r.Pages, tp.text)
			cases = append(cases, QueryTestCase{
				Query:          tp.phrase,
				ExpectedReport: name,
				ExpectedPage:   p + 1,
				Description:    fmt.Sprintf("%s page %d", c.name, p+1),
			})
		}
		reports = append(reports, r)
	}
	return &Corpus{
		Reports:      reports,
		TestCases:    cases,
		TotalReports: len(reports),
		TotalQueries: len(cases),
	}
}

// Report returns the corpus report with the given name.
func (c *Corpus) Report(name string) (CorpusReport, bool) {
	for _, r := range c.Reports {
		if r.Name == name {
			return r, true
		}
	}
	return CorpusReport{}, false
}

func containsPhrase(page, phrase string) bool {
	return strings.Contains(strings.ToLower(page), strings.ToLower(phrase))
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}
