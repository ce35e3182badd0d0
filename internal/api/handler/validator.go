package handler

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
)

// structValidator lets gin bind with the services' validator, so a request
// fails with the same field messages over HTTP and from the CLI.
type structValidator struct {
	v *validator.Validate
}

// UseServiceValidator replaces gin's default binding validator.
func UseServiceValidator() {
	binding.Validator = &structValidator{v: service.Validator()}
}

func (s *structValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	val := reflect.ValueOf(obj)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return s.v.Struct(obj)
}

func (s *structValidator) Engine() any {
	return s.v
}
