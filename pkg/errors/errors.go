package errors

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// CodePassThrough 特殊放行码，客户端原样返回，不视为失败
const (
	CodePassThrough = 600
)

// IsSuccess 判断响应码是否可视为成功
func IsSuccess(code int) bool {
	return code == CodeSuccess || code == CodePassThrough
}
