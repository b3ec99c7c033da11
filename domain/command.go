package domain

// SendMessageCommand carries a sending intent from the transport layer.
// The sender is the verified identity of the connected participant, never
// a client-supplied field.
type SendMessageCommand struct {
	Sender   ParticipantID
	Receiver ParticipantID
	Content  string
}

// HistoryQuery asks for the full ordered log between an unordered pair.
type HistoryQuery struct {
	A ParticipantID
	B ParticipantID
}
