package delivery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_Found(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantFound bool
		wantFirst string
		wantOk    bool
	}{
		{
			name:      "locations",
			body:      `{"locations":[{"location":"https://c1/a"},{"location":"https://c2/a"}]}`,
			wantFound: true,
			wantFirst: "https://c1/a",
			wantOk:    true,
		},
		{
			name:      "empty locations",
			body:      `{"locations":[]}`,
			wantFound: true,
		},
		{
			name:      "errors payload",
			body:      `{"errors":[{"code":404,"message":"Requested version does not exist"}]}`,
			wantFound: false,
		},
		{
			name:      "null errors",
			body:      `{"errors":null,"locations":[{"location":"u"}]}`,
			wantFound: false,
			wantFirst: "u",
			wantOk:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metadata
			if err := json.Unmarshal([]byte(tt.body), &m); err != nil {
				t.Fatal(err)
			}
			assert.Equal(t, tt.wantFound, m.Found())
			first, ok := m.FirstLocation()
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantFirst, first)
		})
	}
}
