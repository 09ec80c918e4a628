package contract

import (
	"strings"
	"time"

	"lumina/internal/party"
	"lumina/internal/questionnaire"
	"lumina/internal/template"
)

// FixedFields are the substitution values known before any answer is read.
type FixedFields struct {
	ClientName      string
	ClientEmail     string
	ClientAddress   string
	ClientPhone     string
	ProviderName    string
	ProviderEmail   string
	ProviderAddress string
	ProviderPhone   string
	EventTypeName   string
	CurrentDate     string
}

// NewFixedFields assembles the fixed substitution set from the two parties
// and the event type.
func NewFixedFields(provider *party.Provider, client *party.Client, eventTypeName string, now time.Time) FixedFields {
	return FixedFields{
		ClientName:      client.Name,
		ClientEmail:     client.Email,
		ClientAddress:   client.Address,
		ClientPhone:     client.Phone,
		ProviderName:    provider.Name,
		ProviderEmail:   provider.Email,
		ProviderAddress: provider.Address,
		ProviderPhone:   provider.Phone,
		EventTypeName:   eventTypeName,
		CurrentDate:     now.Format("02/01/2006"),
	}
}

func (f FixedFields) pairs() []string {
	return []string{
		"client_name", f.ClientName,
		"client_email", f.ClientEmail,
		"client_address", f.ClientAddress,
		"client_phone", f.ClientPhone,
		"provider_name", f.ProviderName,
		"provider_email", f.ProviderEmail,
		"provider_address", f.ProviderAddress,
		"provider_phone", f.ProviderPhone,
		"event_type", f.EventTypeName,
		"current_date", f.CurrentDate,
	}
}

func placeholder(key string) string {
	return "{{" + key + "}}"
}

// GenerateContent substitutes placeholders into the template body and appends
// the answer summary. Resolution order is fixed fields, then questionnaire
// answers, then custom variables. Unmatched placeholders stay verbatim.
func GenerateContent(body string, fixed FixedFields, questions []questionnaire.Question, answers questionnaire.Answers, variables []*template.CustomVariable) string {
	pairs := fixed.pairs()
	replacements := make([]string, 0, len(pairs)+2*(len(answers)+len(variables)))
	replacements = append(replacements, pairs...)
	for i := 0; i < len(replacements); i += 2 {
		replacements[i] = placeholder(replacements[i])
	}

	for key, answer := range answers {
		replacements = append(replacements, placeholder(key), answer.Join())
	}
	for _, v := range variables {
		replacements = append(replacements, placeholder(v.Key), v.DefaultValue)
	}

	content := strings.NewReplacer(replacements...).Replace(body)

	if summary := answerSummary(questions, answers); summary != "" {
		content = strings.TrimRight(content, "\n") + "\n\n" + summary
	}
	return content
}

// answerSummary builds the label/value table appended after every generated
// contract, skipping questions left unanswered.
func answerSummary(questions []questionnaire.Question, answers questionnaire.Answers) string {
	var b strings.Builder
	for _, q := range questions {
		answer, ok := answers[q.Key]
		if !ok || answer.IsEmpty() {
			continue
		}
		b.WriteString("|" + q.Label + "|" + answer.Join() + "|\n")
	}
	if b.Len() == 0 {
		return ""
	}
	return "---\n## Questionnaire Summary\n" + b.String()
}
