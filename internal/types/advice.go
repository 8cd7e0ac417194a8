package types

// AdviceRule maps a lowercase keyword to the advice shown when the keyword appears in the input.
type AdviceRule struct {
	Keyword string `json:"keyword" mapstructure:"keyword" example:"fever"`
	Advice  string `json:"advice" mapstructure:"advice"`
}

type SymptomCheckRequest struct {
	Symptoms string `json:"symptoms" example:"I have a fever and a headache"`
}

type Advice struct {
	Input   string `json:"input"`
	Advice  string `json:"advice"`
	Matched bool   `json:"matched"`
	Keyword string `json:"keyword,omitempty"`
}

type FirstAidGuide struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

type FirstAidResponse struct {
	Guides     []FirstAidGuide `json:"guides"`
	Disclaimer string          `json:"disclaimer"`
}
