package handler

import (
	"errors"
	"net/http"

	"campus_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseData 统一响应结构体
type ResponseData struct {
	Code int    `json:"code"`           // 业务响应状态码
	Kind string `json:"kind,omitempty"` // 错误分类，成功时为空
	Msg  any    `json:"msg"`            // 提示信息
	Data any    `json:"data,omitempty"` // 数据
}

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ResponseData{
		Code: errorx.CodeSuccess,
		Msg:  "success",
		Data: data,
	})
}

// HandleError 通用错误处理方法
// errorx.CodeError 原样返回错误码、分类和消息，其余错误统一为服务繁忙
// 存储层的底层错误只写日志，不返回给客户端
func HandleError(c *gin.Context, err error) {
	// 1. 业务错误
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		if errorx.IsTransient(err) {
			zap.L().Error("transient store error",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err),
			)
		}
		c.JSON(http.StatusOK, ResponseData{
			Code: codeErr.Code,
			Kind: errorx.Kind(err),
			Msg:  codeErr.Msg,
		})
		return
	}

	// 2. 系统错误或未知错误
	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	c.JSON(http.StatusOK, ResponseData{
		Code: errorx.ErrServerBusy.Code,
		Kind: errorx.KindInternal,
		Msg:  errorx.ErrServerBusy.Msg,
	})
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && Trans != nil {
		// 翻译后去除结构体名前缀
		c.JSON(http.StatusOK, ResponseData{
			Code: errorx.ErrInvalidParam.Code,
			Kind: errorx.KindValidation,
			Msg:  RemoveTopStruct(validationErrs.Translate(Trans)),
		})
		return
	}

	// 非 validator 错误（如 JSON 格式错误）
	zap.L().Warn("param bind error", zap.Error(err))
	c.JSON(http.StatusOK, ResponseData{
		Code: errorx.ErrInvalidParam.Code,
		Kind: errorx.KindValidation,
		Msg:  errorx.ErrInvalidParam.Msg,
	})
}
