package routing

// LogEntry timestamps a wire string against the virtual clock at the
// moment it was logged.
type LogEntry struct {
	Time float64
	Wire string
}

// MessageLog is an append-only, in-memory record of wire strings — the
// only persisted state the simulator keeps. There are no files and no
// sockets.
type MessageLog struct {
	entries []LogEntry
}

// Append records wire at time t.
func (l *MessageLog) Append(t float64, wire string) {
	l.entries = append(l.entries, LogEntry{Time: t, Wire: wire})
}

// Entries returns a defensive copy of the log's contents in append order.
func (l *MessageLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries logged so far.
func (l *MessageLog) Len() int { return len(l.entries) }

// Logs bundles the four logs every protocol implementation keeps:
// received_messages, output_queue_messages, message_sending, and
// message_sent.
type Logs struct {
	Received    MessageLog
	OutputQueue MessageLog
	Sending     MessageLog
	Sent        MessageLog
}
