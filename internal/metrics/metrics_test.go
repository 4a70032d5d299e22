package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	Register()
	assert.NotPanics(t, func() {
		IncHTTP("GET /items/{id}")
		IncBookingCreated()
		IncBookingDecision("approved")
		IncBookingDecision("rejected")
		IncCommentCreated()
	})
}
