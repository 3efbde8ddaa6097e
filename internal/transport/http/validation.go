package http

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"trivia-quiz-service/internal/domain"
)

var registerOnce sync.Once

// registerValidators adds the quiz enum checks to gin's validator engine.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("quizcategory", func(fl validator.FieldLevel) bool {
			return domain.Category(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("quizdifficulty", func(fl validator.FieldLevel) bool {
			return domain.Difficulty(fl.Field().String()).Valid()
		})
	})
}
