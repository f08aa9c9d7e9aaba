package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"connect ok", `{"kind":"connect","sender":"u1"}`, false},
		{"connect missing sender", `{"kind":"connect"}`, true},
		{"chat with content", `{"kind":"chat","recipientId":"u2","content":"hi"}`, false},
		{"chat with image only", `{"kind":"chat","recipientId":"u2","image":"/blobs/x"}`, false},
		{"chat missing recipient", `{"kind":"chat","content":"hi"}`, true},
		{"chat empty body", `{"kind":"chat","recipientId":"u2"}`, true},
		{"typing ok", `{"kind":"typing","recipientId":"u2"}`, false},
		{"typing missing recipient", `{"kind":"typing"}`, true},
		{"read ok", `{"kind":"read","messageId":"m1"}`, false},
		{"read missing message", `{"kind":"read"}`, true},
		{"unknown kind", `{"kind":"dance","recipientId":"u2"}`, true},
		{"no kind", `{"content":"hi"}`, true},
		{"malformed json", `{"kind":`, true},
		{"not an object", `[1,2,3]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, f.Kind)
		})
	}
}

func TestParseFramePreservesFields(t *testing.T) {
	req := require.New(t)

	f, err := ParseFrame([]byte(`{"kind":"chat","sender":"u1","recipientId":"u2","content":"hello","image":"/blobs/abc"}`))
	req.NoError(err)
	req.Equal(KindChat, f.Kind)
	req.Equal("u1", f.Sender)
	req.Equal("u2", f.Recipient)
	req.Equal("hello", f.Content)
	req.Equal("/blobs/abc", f.Image)
}
