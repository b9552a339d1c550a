package image

const FormatB64JSON = "b64_json"

type Request struct {
	Prompt         string `json:"prompt"`
	Size           Size   `json:"size"`
	ResponseFormat string `json:"response_format"`
	N              int    `json:"n"`
}

func NewRequest(prompt string, size Size) Request {
	return Request{
		Prompt:         prompt,
		Size:           size,
		ResponseFormat: FormatB64JSON,
		N:              1,
	}
}

type Response struct {
	Created int64   `json:"created,omitempty"`
	Data    []Datum `json:"data"`
}

type Datum struct {
	B64JSON string `json:"b64_json"`
}
