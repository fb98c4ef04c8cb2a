// Package llm extracts structured metadata from government documents with a
// chat model in JSON mode. One call per document; the returned object is
// validated against the expected shape before anything downstream sees it.
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// EXTRACTED FIELDS
// =============================================================================

// Topic count bounds, enforced on every extraction.
const (
	minTopics = 5
	maxTopics = 8
)

// ErrInvalidResponse reports a model response that is empty or not
// parseable JSON despite JSON mode.
var ErrInvalidResponse = errors.New("llm response is not valid JSON")

// ErrSchemaViolation reports a parseable response that does not match the
// expected shape: missing or null required fields, or a topic count outside
// the allowed range.
var ErrSchemaViolation = errors.New("llm response violates schema")

// SCOTUSFields holds metadata extracted from a Supreme Court opinion.
type SCOTUSFields struct {
	PlainLanguageSummary string `json:"plain_language_summary"`
	HoldingPlain         string `json:"holding_plain"`
	OutcomeSimple        string `json:"outcome_simple"`
	IssuePlain           string `json:"issue_plain"`
	Reasoning            string `json:"reasoning"`

	ConstitutionCited       []string `json:"constitution_cited"`
	FederalStatutesCited    []string `json:"federal_statutes_cited"`
	FederalRegulationsCited []string `json:"federal_regulations_cited"`
	CasesCited              []string `json:"cases_cited"`
	TopicsOrPolicyAreas     []string `json:"topics_or_policy_areas"`
}

// EOFields holds metadata extracted from an Executive Order.
type EOFields struct {
	PlainSummary               string `json:"plain_summary"`
	ActionPlain                string `json:"action_plain"`
	ImpactSimple               string `json:"impact_simple"`
	ImplementationRequirements string `json:"implementation_requirements"`

	FederalStatutesReferenced    []string `json:"federal_statutes_referenced"`
	FederalRegulationsReferenced []string `json:"federal_regulations_referenced"`
	AgenciesOrEntities           []string `json:"agencies_or_entities"`
	TopicsOrPolicyAreas          []string `json:"topics_or_policy_areas"`
}

var scotusRequiredKeys = []string{
	"plain_language_summary", "holding_plain", "outcome_simple", "issue_plain", "reasoning",
	"constitution_cited", "federal_statutes_cited", "federal_regulations_cited", "cases_cited",
	"topics_or_policy_areas",
}

var eoRequiredKeys = []string{
	"plain_summary", "action_plain", "impact_simple", "implementation_requirements",
	"federal_statutes_referenced", "federal_regulations_referenced", "agencies_or_entities",
	"topics_or_policy_areas",
}

// parseSCOTUSFields validates and decodes a raw model response for a
// Supreme Court opinion. Unknown extra keys are dropped by the decode.
func parseSCOTUSFields(raw string) (*SCOTUSFields, error) {
	obj, err := parseObject(raw, scotusRequiredKeys)
	if err != nil {
		return nil, err
	}

	var fields SCOTUSFields
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := validateTopicCount(fields.TopicsOrPolicyAreas); err != nil {
		return nil, err
	}
	return &fields, nil
}

// parseEOFields validates and decodes a raw model response for an
// Executive Order.
func parseEOFields(raw string) (*EOFields, error) {
	obj, err := parseObject(raw, eoRequiredKeys)
	if err != nil {
		return nil, err
	}

	var fields EOFields
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := validateTopicCount(fields.TopicsOrPolicyAreas); err != nil {
		return nil, err
	}
	return &fields, nil
}

// parseObject checks the response is a JSON object and that every required
// key is present and non-null. Empty strings and empty lists are fine;
// null and absence are not.
func parseObject(raw string, required []string) (json.RawMessage, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	for _, key := range required {
		v, ok := keys[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrSchemaViolation, key)
		}
		if string(v) == "null" {
			return nil, fmt.Errorf("%w: field %q is null", ErrSchemaViolation, key)
		}
	}
	return json.RawMessage(raw), nil
}

func validateTopicCount(topics []string) error {
	if len(topics) < minTopics || len(topics) > maxTopics {
		return fmt.Errorf("%w: topics_or_policy_areas has %d items, want %d-%d",
			ErrSchemaViolation, len(topics), minTopics, maxTopics)
	}
	return nil
}
