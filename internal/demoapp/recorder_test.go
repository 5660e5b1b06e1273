package demoapp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestRecorder_Wraps(t *testing.T) {
	r := NewRequestRecorder(3)
	for i := range 5 {
		r.Add(Request{Method: "GET", Path: fmt.Sprintf("/%d", i)})
	}

	assert.EqualValues(t, 3, r.Size())
	recent := r.Recent(10)
	assert.Equal(t, []string{"/2", "/3", "/4"}, []string{recent[0].Path, recent[1].Path, recent[2].Path})

	recent = r.Recent(1)
	assert.Equal(t, "/4", recent[0].Path)
}

func TestRequestRecorder_Empty(t *testing.T) {
	r := NewRequestRecorder(2)
	assert.Empty(t, r.Recent(5))
	assert.Zero(t, r.Count("POST", "/account/verify"))
}

func TestRequestRecorder_Count(t *testing.T) {
	r := NewRequestRecorder(10)
	r.Add(Request{Method: "POST", Path: "/account/verify"})
	r.Add(Request{Method: "GET", Path: "/account/verify"})
	r.Add(Request{Method: "POST", Path: "/account/verify"})

	assert.Equal(t, 2, r.Count("POST", "/account/verify"))
}

func TestNewRequestRecorder_ZeroCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { NewRequestRecorder(0) })
}
