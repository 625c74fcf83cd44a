package responses

type Message struct {
	Type    string `json:"type"` // "error", "warning", etc
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"` // application-level logic code
}

// Application-level codes carried in Message.Code
const (
	CodeSessionBusy      = 1001 // another request is mutating the same wizard session
	CodeGenerationLocked = 1002 // the wizard has not reached a step that allows generation
	CodeLinearNavigation = 1003
	CodeStepOutOfRange   = 1004
)
