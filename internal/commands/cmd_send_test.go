package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/danmaku/internal/core/comment"
)

func TestSendCmd_Payload(t *testing.T) {
	tests := []struct {
		name    string
		cmd     SendCmd
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "plain text becomes a payload",
			text: "hello",
			want: `{"text":"hello"}`,
		},
		{
			name: "raw text is sent verbatim",
			cmd:  SendCmd{raw: true, color: "red"},
			text: "hello",
			want: "hello",
		},
		{
			name: "flags fill the payload",
			cmd:  SendCmd{icon: "a.png", color: "red", images: []string{"b.png"}},
			text: "hi",
			want: `{"text":"hi","icon":"a.png","color":"red","images":["b.png"]}`,
		},
		{
			name:    "inline images need placeholders",
			cmd:     SendCmd{inline: []string{"x.png", "y.png"}},
			text:    "one " + comment.InlinePlaceholder,
			wantErr: true,
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.payload(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendCmd_PayloadDecodes(t *testing.T) {
	cmd := SendCmd{inline: []string{"e.png"}, videos: []string{"v.mp4"}}

	raw, err := cmd.payload("nice " + comment.InlinePlaceholder + " shot")
	require.NoError(t, err)

	segs := comment.Parse(comment.Decode(raw))
	require.Len(t, segs.Body, 3)
	assert.Equal(t, comment.Part{Kind: comment.PartInlineImage, Value: "e.png"}, segs.Body[1])
	assert.Equal(t, []string{"v.mp4"}, segs.Videos)
}
