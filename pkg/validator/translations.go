package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// registerCustomTranslations registers translations for custom validation rules.
func (v *Validator) registerCustomTranslations() {
	// Register English translations
	enTrans := v.GetTranslator(LangEN)
	if enTrans != nil {
		v.registerEnglishTranslations(enTrans)
	}

	// Register Chinese translations
	zhTrans := v.GetTranslator(LangZH)
	if zhTrans != nil {
		v.registerChineseTranslations(zhTrans)
	}
}

// registerEnglishTranslations registers English translations for custom rules.
func (v *Validator) registerEnglishTranslations(trans ut.Translator) {
	translations := map[string]string{
		TagReadPref:       "{0} must be one of primary, primaryPreferred, secondary, secondaryPreferred, nearest",
		TagMongoProtocol:  "{0} must be mongodb or mongodb+srv",
		TagCollectionName: "{0} must not contain '$' or NUL and must not start with 'system.'",
		TagNoWhitespace:   "{0} must not contain whitespace characters",
		TagHostList:       "{0} must be a comma-separated list of host[:port] entries",
	}

	for tag, message := range translations {
		registerTranslation(v.validate, trans, tag, message)
	}
}

// registerChineseTranslations registers Chinese translations for custom rules.
func (v *Validator) registerChineseTranslations(trans ut.Translator) {
	translations := map[string]string{
		TagReadPref:       "{0}必须是 primary、primaryPreferred、secondary、secondaryPreferred、nearest 之一",
		TagMongoProtocol:  "{0}必须是 mongodb 或 mongodb+srv",
		TagCollectionName: "{0}不能包含'$'或空字符，且不能以'system.'开头",
		TagNoWhitespace:   "{0}不能包含空白字符",
		TagHostList:       "{0}必须是以逗号分隔的 host[:port] 列表",
	}

	for tag, message := range translations {
		registerTranslation(v.validate, trans, tag, message)
	}
}

// registerTranslation registers a single translation.
func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}

// TranslationOverride represents a translation override for a specific tag.
type TranslationOverride struct {
	Tag     string
	Message string
}

// RegisterTranslations registers multiple translation overrides for a language.
func (v *Validator) RegisterTranslations(lang string, overrides []TranslationOverride) {
	trans := v.GetTranslator(lang)
	if trans == nil {
		return
	}

	for _, override := range overrides {
		registerTranslation(v.validate, trans, override.Tag, override.Message)
	}
}

// RegisterTranslation registers a single translation override.
func (v *Validator) RegisterTranslation(lang, tag, message string) {
	trans := v.GetTranslator(lang)
	if trans == nil {
		return
	}

	registerTranslation(v.validate, trans, tag, message)
}
