package server

// sampleReportName and sampleReportText back POST /api/sample-report.
const sampleReportName = "Sample_ESG_Report_2024_Afrigrid.txt"

const sampleReportText = "ESG REPORT 2024 – AFRIGRID ENERGY PLC. " +
	"Afrigrid Energy Plc is a West African electricity generation and distribution company. " +
	"Scope 1 emissions: 130000 tCO2e; Scope 2 emissions: 82000 tCO2e; " +
	"Scope 3 emissions: 460000 tCO2e. Total energy consumption: 124000 MWh. " +
	"Water withdrawals: 98500 m3. Total non-hazardous waste generated: 4300 tonnes. " +
	"Total employees: 5100. Board female representation: 36%. " +
	"The company references GRI Standards, SASB Electric Utilities & Power Generators, " +
	"and partial alignment with IFRS S1 and IFRS S2. The strategy aligns with SDG 7 " +
	"(Affordable and Clean Energy) and SDG 13 (Climate Action)."
