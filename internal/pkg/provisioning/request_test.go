package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRequest() Request {
	return Request{
		Firstname:            "Jane",
		Lastname:             "Doe",
		Email:                "jane@example.com",
		Passwd:               "secret1",
		PlanTier:             "hobby",
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
		want   string
	}{
		{name: "valid", mutate: func(r *Request) {}, want: ""},
		{name: "missing lastname", mutate: func(r *Request) { r.Lastname = "  " }, want: "Missing required fields"},
		{name: "missing beats bad email", mutate: func(r *Request) { r.StripeCustomerID = ""; r.Email = "nope" }, want: "Missing required fields"},
		{name: "bad email", mutate: func(r *Request) { r.Email = "jane@example" }, want: "Invalid email format"},
		{name: "email beats short password", mutate: func(r *Request) { r.Email = "a b@c.d"; r.Passwd = "123" }, want: "Invalid email format"},
		{name: "short password", mutate: func(r *Request) { r.Passwd = "12345" }, want: "Password must be at least 6 characters"},
		{name: "password beats plan", mutate: func(r *Request) { r.Passwd = "12345"; r.PlanTier = "gold" }, want: "Password must be at least 6 characters"},
		{name: "bad plan", mutate: func(r *Request) { r.PlanTier = "enterprise" }, want: "Invalid plan tier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.EqualError(t, err, tt.want)
		})
	}
}
