// Package validation registers the custom binding tags used by request structs.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
)

var once sync.Once

// Register adds the feedback_status tag to gin's validator and makes
// validation errors report json field names. It is safe to call more than once.
func Register() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		err = v.RegisterValidation("feedback_status", feedbackStatus)
	})
	return err
}

func feedbackStatus(fl validator.FieldLevel) bool {
	return models.FeedbackStatus(fl.Field().String()).Valid()
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
