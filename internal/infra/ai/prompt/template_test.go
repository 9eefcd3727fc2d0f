package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONSyntaxStripsComments(t *testing.T) {
	in := "// full line comment\nAnalyze {company_name}\nreturn data // trailing\nplain"
	got := CleanJSONSyntax(in)

	assert.NotContains(t, got, "//")
	assert.NotContains(t, got, "full line comment")
	assert.Contains(t, got, "return data\n")
	assert.Contains(t, got, CompanyPlaceholder)
}

func TestCleanJSONSyntaxEscapesBracesButKeepsPlaceholder(t *testing.T) {
	in := `Respond with {"company_name": "{company_name}"}`
	got := CleanJSONSyntax(in)

	assert.Equal(t, `Respond with {{"company_name": "{company_name}"}}`, got)
}

func TestFormatCompanyPromptSubstitutesVerbatim(t *testing.T) {
	got, err := FormatCompanyPrompt("Analyze {company_name} in detail.", `Acme "quoted" & <Co>`)
	require.NoError(t, err)
	assert.Equal(t, `Analyze Acme "quoted" & <Co> in detail.`, got)
}

func TestFormatCompanyPromptJSONExampleSurvives(t *testing.T) {
	in := "Find handles for {company_name}.\n" +
		"Return:\n" +
		`{"company_name": "{company_name}", "main_twitter_handle": "@handle"}`
	got, err := FormatCompanyPrompt(in, "Tesla Inc.")
	require.NoError(t, err)

	assert.Contains(t, got, "Find handles for Tesla Inc.")
	assert.Contains(t, got, `{"company_name": "Tesla Inc.", "main_twitter_handle": "@handle"}`)
	// every remaining brace is a literal, none doubled
	assert.NotContains(t, got, "{{")
	assert.NotContains(t, got, "}}")
	assert.NotContains(t, got, CompanyPlaceholder)
}

func TestFormatCompanyPromptFallbackAppendsCompany(t *testing.T) {
	got, err := FormatCompanyPrompt("Describe the company thoroughly.", "Gojek")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "\n\nCompany to analyze: Gojek"))
	assert.True(t, strings.HasPrefix(got, "Describe the company thoroughly."))
}

func TestFormatCompanyPromptDefaultTemplate(t *testing.T) {
	got, err := FormatCompanyPrompt(DefaultAnalysisTemplate, "Apple Inc.")
	require.NoError(t, err)
	assert.Contains(t, got, "Company: Apple Inc.")
	assert.NotContains(t, got, CompanyPlaceholder)
}

func TestExpandStrayBraceErrors(t *testing.T) {
	_, err := expand("unterminated { here", nil)
	assert.Error(t, err)

	_, err = expand("closing } alone", nil)
	assert.Error(t, err)
}

func TestExpandUnknownPlaceholderErrors(t *testing.T) {
	_, err := expand("hello {nope}", map[string]string{"company_name": "x"})
	assert.Error(t, err)
}

func TestExpandDoubledBracesCollapse(t *testing.T) {
	got, err := expand("{{literal}} and {slot}", map[string]string{"slot": "v"})
	require.NoError(t, err)
	assert.Equal(t, "{literal} and v", got)
}

func TestFormatValidationPromptSubstitutesDocuments(t *testing.T) {
	tpl := "INPUT:\n{input_json}\nEXPECTED:\n{expected_json}\nACTUAL:\n{actual_json}"
	input := []any{"Apple Inc."}
	expected := map[string]any{"total_companies": 1}
	actual := map[string]any{"total_companies": 1, "results": []any{}}

	got, err := FormatValidationPrompt(tpl, input, expected, actual)
	require.NoError(t, err)

	assert.Contains(t, got, "\"Apple Inc.\"")
	assert.Contains(t, got, "\"total_companies\": 1")
	assert.Contains(t, got, "\"results\": []")
}

func TestFormatValidationPromptDefaultTemplate(t *testing.T) {
	got, err := FormatValidationPrompt(DefaultValidationTemplate,
		[]any{"Apple Inc."},
		map[string]any{"total_companies": 1},
		map[string]any{"total_companies": 1},
	)
	require.NoError(t, err)
	assert.NotContains(t, got, "{input_json}")
	assert.NotContains(t, got, "{expected_json}")
	assert.NotContains(t, got, "{actual_json}")
}
