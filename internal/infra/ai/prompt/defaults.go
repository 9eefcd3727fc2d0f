package prompt

// DefaultAnalysisTemplate is the prompt used when a request carries none.
const DefaultAnalysisTemplate = `You are a social media research expert. I need you to find the official Twitter handles for {company_name}.

Company: {company_name}

Please provide:
1. The main company's official Twitter handle

Focus on:
- Official corporate accounts (usually verified with blue checkmark)

Format your response strictly as JSON with the following schema:
{{
  "company_name": "{company_name}",
  "main_twitter_handle": "@company_handle"
}}

Important:
- Only include verified or clearly official accounts
- Use @ symbol for all handles
- If no Twitter handle is found, use null for the handle field
- Be specific about account types and descriptions
- Only return JSON, no additional text`

// DefaultValidationTemplate carries three named slots: input_json,
// expected_json, actual_json.
const DefaultValidationTemplate = `You are a data validation expert. Validate the correctness of the system-generated output.

**INPUT DATA (original companies):**
{input_json}

**EXPECTED OUTPUT (reference example):**
{expected_json}

**ACTUAL OUTPUT (to validate):**
{actual_json}

Ignore:
- Data completeness (not all inputs need to appear in actual)
- Format compliance (don't check structure/schema)
- Missing elements

Focus only on validating the **data values** in ` + "`analysis`" + `.

Check the following:
1. **Company Name Match**: Does ` + "`company`" + ` exactly equal ` + "`analysis.company_name`" + `?
2. **Twitter Handle Validity**: Is ` + "`main_twitter_handle`" + ` in the correct format (must start with ` + "`@`" + `)?
3. **Twitter Handle Accuracy**: Compare with the style/pattern in EXPECTED (e.g., ` + "`Apple Inc.` → `@Apple`, `Tesla Inc.` → `@Tesla`" + `). Assess if the mapping is reasonable for the company in ACTUAL.
4. **Inconsistencies**: List mismatches between ` + "`company`" + ` and ` + "`analysis.company_name`" + `, invalid handles, or unlikely mappings.
5. **Final Verdict**: Is the ACTUAL output data correct and usable?

Return only structured JSON:

{{
  "company_name_match": "score/assessment",
  "twitter_handle_validity": "score/assessment",
  "twitter_handle_accuracy": "score/assessment",
  "inconsistencies": ["list of issues"],
  "overall_assessment": "final verdict",
  "recommendations": ["suggestion1", "suggestion2"]
}}`
