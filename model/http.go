package model

type CompileRequestBody struct {
	Source string `json:"source"`
}

type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

type CompileErrorResponse struct {
	RequestId   string       `json:"request_id"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

type PlaybackEvent struct {
	Millis  float64 `json:"millis"`
	Bytes   string  `json:"bytes"`
	Message string  `json:"message"`
}

type EventsResponse struct {
	RequestId string          `json:"request_id"`
	BPM       float64         `json:"bpm"`
	Events    []PlaybackEvent `json:"events"`
}
