package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLargestFace(t *testing.T) {
	tests := []struct {
		name  string
		faces []DetectedFace
		want  BoundingBox
		ok    bool
	}{
		{
			name:  "empty slice",
			faces: nil,
			ok:    false,
		},
		{
			name: "single face",
			faces: []DetectedFace{
				{BoundingBox: BoundingBox{X: 10, Y: 10, Width: 50, Height: 50}},
			},
			want: BoundingBox{X: 10, Y: 10, Width: 50, Height: 50},
			ok:   true,
		},
		{
			name: "picks largest by area",
			faces: []DetectedFace{
				{BoundingBox: BoundingBox{X: 0, Y: 0, Width: 40, Height: 40}},
				{BoundingBox: BoundingBox{X: 100, Y: 100, Width: 120, Height: 90}},
				{BoundingBox: BoundingBox{X: 300, Y: 20, Width: 60, Height: 60}},
			},
			want: BoundingBox{X: 100, Y: 100, Width: 120, Height: 90},
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LargestFace(tt.faces)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.BoundingBox)
			}
		})
	}
}

func TestBoundingBox_Area(t *testing.T) {
	b := BoundingBox{X: 5, Y: 5, Width: 30, Height: 20}
	assert.Equal(t, 600.0, b.Area())
}
