package gemini

import "google.golang.org/genai"

// AnalysisSchema mirrors radar.AnalysisResult.
func AnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
			"demands": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"solution": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"title":              {Type: genai.TypeString},
								"description":        {Type: genai.TypeString},
								"targetUser":         {Type: genai.TypeString},
								"keyDifferentiators": stringList(),
							},
							Required: []string{"title", "description", "targetUser"},
						},
						"validation": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"painPoints":     stringList(),
								"competitors":    stringList(),
								"competitorGaps": stringList(),
								"quotes":         stringList(),
							},
						},
					},
					Required: []string{"solution", "validation"},
				},
			},
		},
		Required: []string{"summary", "demands"},
	}
}

func stringList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}
