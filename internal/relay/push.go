package relay

import "encoding/json"

// Push marshals v and best-effort delivers it to identity's live connection.
// Absent, slow, or closing peers simply lose the payload: durable state, not
// the live channel, is the source of truth. Reports whether the payload was
// queued.
func Push(reg *Registry, identity string, v any) bool {
	conn, ok := reg.Lookup(identity)
	if !ok {
		pushesDropped.Inc()
		return false
	}
	return sendTo(conn, v)
}

func sendTo(conn Pusher, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		pushesDropped.Inc()
		return false
	}
	if !conn.TrySend(payload) {
		pushesDropped.Inc()
		return false
	}
	return true
}
