package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// SalesInsight is the structured answer the assistant returns for a question
// about the store's sales data.
type SalesInsight struct {
	Answer     string   `json:"answer" jsonschema_description:"Direct answer to the question, grounded in the provided report data"`
	Highlights []string `json:"highlights" jsonschema_description:"Up to three notable facts from the data supporting the answer"`
	Confidence float64  `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// AnswerQuestion asks the model a natural-language question about the store,
// constrained to the report data passed in reportContext. The response is
// forced into the SalesInsight schema via structured output.
func (a *Agent) AnswerQuestion(ctx context.Context, question, reportContext string) (*SalesInsight, error) {
	prompt := fmt.Sprintf(`You are a retail sales analyst for a point-of-sale system.
Answer the manager's question using ONLY the report data below.
Rules:
1. Base every claim on the provided data; never invent numbers.
2. If the data cannot answer the question, say so in the answer.
3. Keep the answer short and concrete.
4. Provide a confidence score (0.0-1.0).

Report data:
%s

Question: %s`, reportContext, question)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "sales_insight",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("An answer to a question about store sales data"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var insight SalesInsight
	if err := json.Unmarshal([]byte(content), &insight); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	return &insight, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v SalesInsight
	return reflector.Reflect(v)
}
