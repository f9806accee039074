package handler

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Trans 全局翻译器
var Trans ut.Translator

var transOnce sync.Once

// principalIDPattern 用户 id 只允许字母、数字、下划线和短横线
var principalIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidPrincipalID 路径参数中的 id 也用同一规则校验
func ValidPrincipalID(id string) bool {
	return principalIDPattern.MatchString(id)
}

// InitTrans 初始化翻译器并注册 principal_id 校验规则
// 多次调用只生效一次
func InitTrans(locale string) (err error) {
	transOnce.Do(func() {
		err = initTrans(locale)
	})
	return err
}

func initTrans(locale string) error {
	if binding.Validator == nil {
		binding.Validator = &defaultValidator{validator: validator.New()}
	}
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	// 报错信息使用 json tag 作为字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("principal_id", func(fl validator.FieldLevel) bool {
		return ValidPrincipalID(fl.Field().String())
	}); err != nil {
		return err
	}

	// en 为 fallback
	uni := ut.New(en.New(), zh.New(), en.New())
	Trans, ok = uni.GetTranslator(locale)
	if !ok {
		return fmt.Errorf("uni.GetTranslator(%s) failed", locale)
	}

	var err error
	switch locale {
	case "zh":
		err = zh_translations.RegisterDefaultTranslations(v, Trans)
	default:
		err = en_translations.RegisterDefaultTranslations(v, Trans)
	}
	if err != nil {
		return err
	}

	msg := "{0} must contain only letters, digits, '_' or '-'"
	if locale == "zh" {
		msg = "{0}只能包含字母、数字、下划线和短横线"
	}
	return v.RegisterTranslation("principal_id", Trans,
		func(t ut.Translator) error {
			return t.Add("principal_id", msg, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T("principal_id", fe.Field())
			return s
		})
}

// RemoveTopStruct 去除提示信息中的结构体名称
func RemoveTopStruct(fields map[string]string) map[string]string {
	res := make(map[string]string)
	for field, err := range fields {
		res[field[strings.Index(field, ".")+1:]] = err
	}
	return res
}

// defaultValidator 实现 binding.StructValidator
type defaultValidator struct {
	validator *validator.Validate
}

func (v *defaultValidator) ValidateStruct(obj interface{}) error {
	return v.validator.Struct(obj)
}

func (v *defaultValidator) Engine() interface{} {
	return v.validator
}
