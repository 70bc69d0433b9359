package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `json:"full_name" validate:"required,max=5"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"min=18"`
	Kind  string `json:"kind" validate:"omitempty,oneof=A B"`
	Site  string `json:"site" validate:"omitempty,url"`
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, Struct(&sample{Name: "Jane", Email: "j@example.com", Age: 30, Kind: "A"}))
}

func TestStruct_Messages(t *testing.T) {
	fields := Struct(&sample{Name: "Johnny", Email: "nope", Age: 3, Kind: "C", Site: "x"})

	assert.Equal(t, map[string]string{
		"full_name": "Ensure this value has at most 5 characters.",
		"email":     "Enter a valid email address.",
		"age":       "Ensure this value is greater than or equal to 18.",
		"kind":      "Select a valid choice.",
		"site":      "Enter a valid URL.",
	}, fields)
}

func TestStruct_Required(t *testing.T) {
	fields := Struct(&sample{Age: 18})
	assert.Equal(t, "This field is required.", fields["full_name"])
	assert.Equal(t, "This field is required.", fields["email"])
}
