package domain

// PromptRole is the role of a message sent to the completion service.
// It extends Role with the system role, which is never persisted.
type PromptRole string

const (
	PromptRoleSystem    PromptRole = "system"
	PromptRoleUser      PromptRole = "user"
	PromptRoleAssistant PromptRole = "assistant"
)

type PromptMessage struct {
	Role    PromptRole
	Content string
}

// Prompt is the ordered, ephemeral context for one generation request.
type Prompt struct {
	Messages []PromptMessage
}

// SegmentKind tags a piece of completion output.
type SegmentKind int

const (
	SegmentOther SegmentKind = iota
	SegmentText
)

// Segment is one piece of a completion. Only SegmentText carries Text.
type Segment struct {
	Kind SegmentKind
	Text string
}

func TextSegment(s string) Segment {
	return Segment{Kind: SegmentText, Text: s}
}

func OtherSegment() Segment {
	return Segment{Kind: SegmentOther}
}

// Completion is the raw output of a completion call.
type Completion struct {
	Segments []Segment
}
