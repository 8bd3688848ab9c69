package dto

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("media_format", validateMediaFormat)
	validate.RegisterValidation("collectible_market", validateCollectibleMarket)
}

func GetValidator() *validator.Validate {
	return validate
}

var knownFormats = map[string]bool{
	"VHS": true, "DVD": true, "Blu-ray": true, "4K UHD": true, "LaserDisc": true,
}

var knownMarkets = map[string]bool{
	"comics": true, "video-games": true, "concert-posters": true,
	"trading-cards": true, "sports-cards": true, "magazines": true,
}

func validateMediaFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || knownFormats[value]
}

func validateCollectibleMarket(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || knownMarkets[value]
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param() + " characters"
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param() + " characters"
			case "numeric":
				message = fieldError.Field() + " must contain only numbers"
			case "url":
				message = fieldError.Field() + " must be a valid URL"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			case "media_format":
				message = fieldError.Field() + " must be a known physical format"
			case "collectible_market":
				message = fieldError.Field() + " must be a supported collectible market"
			case "gte":
				message = fieldError.Field() + " must be at least " + fieldError.Param()
			case "lte":
				message = fieldError.Field() + " must be at most " + fieldError.Param()
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
