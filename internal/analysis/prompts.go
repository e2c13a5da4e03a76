package analysis

func answerPrompt(contextBlock, question string) string {
	return "You are an ESG and sustainability analysis assistant. " +
		"You must answer ONLY using the context below. " +
		"If the answer is not clearly supported by the context, say you cannot find it.\n\n" +
		"Context:\n" + contextBlock + "\n\n" +
		"Question: " + question + "\n\n" +
		"Answer clearly and concisely. When relevant, refer to context items like [1], [2]."
}

func summaryPrompt(reportContext string) string {
	return "You are an ESG analyst. Based only on the context below, write a professional, " +
		"1-page ESG executive summary of this company's sustainability performance.\n\n" +
		"Structure the summary as markdown with the following sections:\n" +
		"1. Overview\n" +
		"2. Key environmental metrics (CO₂, energy, water, waste)\n" +
		"3. Social initiatives\n" +
		"4. Governance & risk management\n" +
		"5. Strengths\n" +
		"6. Gaps and risks\n\n" +
		"Be factual and avoid making up data. If a metric is not disclosed, say so.\n\n" +
		"Context:\n" + reportContext + "\n\n" +
		"Now write the markdown summary."
}

const metricsSchema = `{
  "emissions": {
    "scope1_tco2e": number | null,
    "scope2_tco2e": number | null,
    "scope3_tco2e": number | null
  },
  "energy": {
    "total_mwh": number | null
  },
  "water": {
    "withdrawals_m3": number | null
  },
  "waste": {
    "total_tonnes": number | null
  },
  "social": {
    "employees_total": number | null
  },
  "governance": {
    "board_female_pct": number | null
  }
}`

func metricsPrompt(reportContext string) string {
	return "You are an ESG data extraction assistant. Based ONLY on the context below, " +
		"extract key ESG metrics and return them as strict JSON. Do not include commentary.\n\n" +
		"Use this exact JSON structure:\n" + metricsSchema + "\n\n" +
		"If a value is not clearly stated, use null. Do NOT add any extra top-level fields. " +
		"Respond with JSON only, no extra text.\n\n" +
		"Context:\n" + reportContext + "\n\n" +
		"Return JSON now."
}

const complianceSchema = `{
  "sdgs": {"covered": boolean, "notes": string},
  "gri": {"covered": boolean, "notes": string},
  "sasb": {"covered": boolean, "notes": string},
  "ifrs_s1": {"covered": boolean, "notes": string},
  "ifrs_s2": {"covered": boolean, "notes": string}
}`

func compliancePrompt(reportContext string) string {
	return "You are an ESG reporting compliance assistant. Based ONLY on the context below, " +
		"assess whether the report discusses or references each of the following:\n" +
		"- SDGs (Sustainable Development Goals)\n" +
		"- GRI\n" +
		"- SASB\n" +
		"- IFRS S1\n" +
		"- IFRS S2\n\n" +
		"Return a strict JSON object with this structure:\n" + complianceSchema + "\n\n" +
		"If you are not sure, set covered to false and explain briefly in notes. " +
		"Respond with JSON only, no extra text.\n\n" +
		"Context:\n" + reportContext + "\n\n" +
		"Return JSON now."
}

func riskPrompt(reportContext string) string {
	return "You are an ESG analyst assessing potential greenwashing. Based ONLY on the context below, " +
		"assign a simple greenwashing risk label and explanation.\n\n" +
		"Choose one of these labels: Low, Medium, High.\n\n" +
		"Return a strict JSON object:\n" +
		"{\n  \"score\": \"Low\" | \"Medium\" | \"High\",\n  \"explanation\": string\n}\n\n" +
		"Do not add other fields. Respond with JSON only.\n\n" +
		"Context:\n" + reportContext + "\n\n" +
		"Return JSON now."
}
