// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:     "without event name",
			data:     "hello",
			expected: "data: hello\n\n",
		},
		{
			name:      "with event name",
			eventName: "toast",
			data:      "hello",
			expected:  "event: toast\ndata: hello\n\n",
		},
		{
			name:      "multiline data",
			eventName: "toast",
			data:      "<div>\n<p>hi</p>\n</div>",
			expected:  "event: toast\ndata: <div>\ndata: <p>hi</p>\ndata: </div>\n\n",
		},
		{
			name:     "crlf line endings",
			data:     "a\r\nb",
			expected: "data: a\ndata: b\n\n",
		},
		{
			name:      "empty data",
			eventName: "captcha-reset",
			data:      "",
			expected:  "event: captcha-reset\ndata: \n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatEvent(tt.eventName, tt.data))
		})
	}
}

func TestHeartbeat(t *testing.T) {
	assert.Equal(t, ": heartbeat\n\n", Heartbeat)
}
