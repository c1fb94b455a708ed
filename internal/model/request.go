package model

// OpenSessionRequest opens an assistant surface, optionally seeding it with a
// question that is sent once on open.
type OpenSessionRequest struct {
	InitialQuestion string `json:"initial_question"`
}

type SubmitRequest struct {
	Question string `json:"question"`
}

// AskRequest is the stateless completion body. Either Prompt or Messages is
// set; a bare prompt is treated as a one-turn history.
type AskRequest struct {
	Prompt   string `json:"prompt"`
	Messages []Turn `json:"messages"`
}
