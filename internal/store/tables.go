package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	llmEventsTableName = "llm_request_events"
	resultsTableName   = "generation_results"
)

var (
	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       llmEventsTableName,
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventsColumns[5]}},
		},
	}

	resultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "run_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "strategy", Type: field.TypeString},
		{Name: "target", Type: field.TypeInt},
		{Name: "distractor_count", Type: field.TypeInt},
		{Name: "raw_candidate_count", Type: field.TypeInt},
		{Name: "relevance", Type: field.TypeFloat64},
		{Name: "plausibility", Type: field.TypeFloat64},
		{Name: "educational_value", Type: field.TypeFloat64},
		{Name: "cache_hit", Type: field.TypeBool, Default: false},
		{Name: "fell_back", Type: field.TypeBool, Default: false},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "distractors", Type: field.TypeString, Size: 2147483647, Default: "[]"},
	}
	resultsTable = &schema.Table{
		Name:       resultsTableName,
		Columns:    resultsColumns,
		PrimaryKey: []*schema.Column{resultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "generationresult_run_id", Columns: []*schema.Column{resultsColumns[3]}},
			{Name: "generationresult_question_id", Columns: []*schema.Column{resultsColumns[4]}},
		},
	}

	tables = []*schema.Table{llmEventsTable, resultsTable}
)
