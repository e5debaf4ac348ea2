package queue_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mitchfriedman/soirees/lib/queue"
)

func TestDecode(t *testing.T) {
	ts := time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		body     string
		expected queue.GenerationRequest
		invalid  bool
	}{
		"full":              {`{"soireeId":"E1","clientId":"C1","style":"disco","timestamp":"2026-10-01T20:00:00Z"}`, queue.GenerationRequest{SoireeID: "E1", ClientID: "C1", Style: "disco", Timestamp: ts}, false},
		"unknown fields":    {`{"soireeId":"E1","style":"jazz","priority":9}`, queue.GenerationRequest{SoireeID: "E1", Style: "jazz"}, false},
		"millis timestamp":  {`{"soireeId":"E1","style":"disco","timestamp":"2026-10-01T20:00:00.000Z"}`, queue.GenerationRequest{SoireeID: "E1", Style: "disco", Timestamp: ts}, false},
		"numeric timestamp": {`{"soireeId":"E1","style":"disco","timestamp":1760000000000}`, queue.GenerationRequest{SoireeID: "E1", Style: "disco", Timestamp: time.UnixMilli(1760000000000).UTC()}, false},
		"empty timestamp":   {`{"soireeId":"E1","style":"disco","timestamp":""}`, queue.GenerationRequest{SoireeID: "E1", Style: "disco"}, false},
		"null timestamp":    {`{"soireeId":"E1","style":"disco","timestamp":null}`, queue.GenerationRequest{SoireeID: "E1", Style: "disco"}, false},
		"garbled timestamp": {`{"soireeId":"E1","style":"disco","timestamp":"last tuesday"}`, queue.GenerationRequest{SoireeID: "E1", Style: "disco"}, false},
		"object timestamp":  {`{"soireeId":"E1","style":"disco","timestamp":{"s":1}}`, queue.GenerationRequest{SoireeID: "E1", Style: "disco"}, false},
		"missing id":        {`{"clientId":"C1","style":"disco"}`, queue.GenerationRequest{}, true},
		"not json":          {`<xml/>`, queue.GenerationRequest{}, true},
		"empty":             {``, queue.GenerationRequest{}, true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := queue.Decode([]byte(tc.body))
			if tc.invalid {
				assert.Equal(t, queue.ErrInvalidMessage, errors.Cause(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, req)
		})
	}
}
